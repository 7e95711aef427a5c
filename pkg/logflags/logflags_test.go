package logflags

import "testing"

func TestSetup(t *testing.T) {
	if err := Setup(true, "inferior,events", ""); err != nil {
		t.Fatal(err)
	}
	if !Inferior() || !Events() {
		t.Error("expected inferior and events logging to be enabled")
	}
	if Spawn() || RPC() {
		t.Error("expected spawn and rpc logging to stay disabled")
	}
	inferior, events = false, false
}

func TestSetupRejectsOutputWithoutLog(t *testing.T) {
	if err := Setup(false, "events", ""); err == nil {
		t.Error("expected an error for --log-output without --log")
	}
	events = false
}

func TestSetupUnknownOutput(t *testing.T) {
	if err := Setup(true, "nosuchlayer", ""); err == nil {
		t.Error("expected an error for an unknown log output")
	}
}
