package config

import (
	"reflect"
	"testing"
)

func TestDefaultLaunchArgv(t *testing.T) {
	c := &Config{DefaultLaunch: `/bin/prog -v "hello world"`}
	args, err := c.DefaultLaunchArgv()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/bin/prog", "-v", "hello world"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("DefaultLaunchArgv() = %q, want %q", args, want)
	}
}

func TestDefaultLaunchArgvEmpty(t *testing.T) {
	c := &Config{}
	args, err := c.DefaultLaunchArgv()
	if err != nil {
		t.Fatal(err)
	}
	if args != nil {
		t.Errorf("DefaultLaunchArgv() = %q, want nil", args)
	}
}
