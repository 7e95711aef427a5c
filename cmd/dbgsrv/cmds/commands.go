// Package cmds implements the command line interface of dbgsrv.
package cmds

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-dbgsrv/dbgsrv/pkg/config"
	"github.com/go-dbgsrv/dbgsrv/pkg/errcode"
	"github.com/go-dbgsrv/dbgsrv/pkg/logflags"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc"
	"github.com/go-dbgsrv/dbgsrv/pkg/proc/native"
	"github.com/go-dbgsrv/dbgsrv/pkg/spawn"
	"github.com/go-dbgsrv/dbgsrv/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// workingDir is the working directory for the launched debuggee.
	workingDir string
	// tty is the terminal device to attach the debuggee to.
	tty string
	// allocatePTY requests a fresh pseudo terminal for the debuggee.
	allocatePTY bool
	// foreground puts the debuggee in the foreground of the terminal.
	foreground bool
	// peekAddr is an address whose string contents are printed at the first stop.
	peekAddr string

	conf *config.Config
)

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = config.LoadConfig()

	rootCommand := &cobra.Command{
		Use:   "dbgsrv",
		Short: "dbgsrv controls processes for remote debugging.",
		Long: `dbgsrv launches or attaches to a process, takes control of it and all of
its threads, and reports every stop the process makes until it terminates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logflags.Setup(log, logOutput, logDest); err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logflags.Close()
		},
	}
	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", conf.Log, "Enable debug logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", conf.LogOutput, "Comma separated list of components that should produce debug output (inferior, events, spawn, rpc).")
	rootCommand.PersistentFlags().StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor number.")

	launchCommand := &cobra.Command{
		Use:   "launch [program -- args...]",
		Short: "Launch a program and control it.",
		Long: `Launches the program stopped at its first instruction and reports every
stop it makes. With no arguments the default-launch entry of the
configuration file is used.`,
		RunE: launchCmd,
	}
	launchCommand.Flags().StringVar(&workingDir, "wd", "", "Working directory of the launched program.")
	launchCommand.Flags().StringVar(&tty, "tty", "", "Terminal device to attach the launched program to.")
	launchCommand.Flags().BoolVar(&allocatePTY, "pty", false, "Allocate a pseudo terminal for the launched program.")
	launchCommand.Flags().BoolVar(&foreground, "foreground", false, "Put the launched program in the foreground of the terminal.")
	launchCommand.Flags().StringVar(&peekAddr, "peek", "", "Print the string at this address at the first stop.")
	rootCommand.AddCommand(launchCommand)

	attachCommand := &cobra.Command{
		Use:   "attach pid",
		Short: "Attach to a running process and control it.",
		Args:  cobra.ExactArgs(1),
		RunE:  attachCmd,
	}
	attachCommand.Flags().StringVar(&peekAddr, "peek", "", "Print the string at this address at the first stop.")
	rootCommand.AddCommand(attachCommand)

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dbgsrv version: %s\n%s\n", version.DbgsrvVersion, version.BuildInfo())
		},
	}
	versionCommand.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		// the logging flags do not apply here
		cmd.InheritedFlags().VisitAll(func(flag *pflag.Flag) {
			flag.Hidden = true
		})
		cmd.Parent().HelpFunc()(cmd, args)
	})
	rootCommand.AddCommand(versionCommand)

	return rootCommand
}

func launchCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		var err error
		args, err = conf.DefaultLaunchArgv()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return errors.New("nothing to launch: no arguments and no default-launch configured")
		}
	}

	opts := []spawn.Option{}
	if workingDir != "" {
		opts = append(opts, spawn.WithWorkingDir(workingDir))
	}
	if tty != "" {
		opts = append(opts, spawn.WithTTY(tty))
	}
	if allocatePTY {
		opts = append(opts, spawn.WithPTY())
	}
	if foreground {
		opts = append(opts, spawn.WithForeground())
	}
	spawner := spawn.New(args, opts...)
	defer spawner.Close()

	p, err := native.Create(spawner)
	if err != nil {
		return fmt.Errorf("could not launch %q: %w", args[0], err)
	}
	return runTarget(p)
}

func attachCmd(cmd *cobra.Command, args []string) error {
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid pid: %q", args[0])
	}
	p, err := native.Attach(pid)
	if err != nil {
		return fmt.Errorf("could not attach to pid %d: %w", pid, err)
	}
	return runTarget(p)
}

// runTarget drives the debuggee: it prints the process description, then
// alternates resume and wait, reporting every stop until the process
// terminates or the user interrupts.
func runTarget(p proc.Process) error {
	defer func() {
		if p.IsAlive() {
			_ = p.Detach()
		}
	}()

	if err := p.UpdateInfo(); err != nil {
		return err
	}
	info := p.Info()
	fmt.Printf("controlling pid %d (%s-%s, %d-bit)\n", info.PID, info.OSType, info.OSVendor, info.PointerSize*8)

	if err := p.EnumerateSharedLibraries(func(lib proc.SharedLibraryInfo) {
		kind := "library"
		if lib.Main {
			kind = "main"
		}
		fmt.Printf("  %-7s %s\n", kind, lib.Path)
	}); err != nil && !errors.Is(err, errcode.ErrUnsupported) {
		return err
	}

	if peekAddr != "" {
		if err := peek(p); err != nil {
			fmt.Fprintf(os.Stderr, "peek failed: %v\n", err)
		}
	}

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, syscall.SIGINT)
	defer signal.Stop(interrupted)

	for {
		if err := p.Resume(); err != nil {
			return err
		}

		waitDone := make(chan error, 1)
		go func() { waitDone <- p.Wait() }()
		var interrupt bool
		select {
		case err := <-waitDone:
			if err != nil {
				return err
			}
		case <-interrupted:
			interrupt = true
			if err := p.Interrupt(); err != nil {
				return err
			}
			if err := <-waitDone; err != nil {
				return err
			}
		}

		th := p.CurrentThread()
		si := th.StopInfo()
		switch si.Event {
		case proc.EventExit:
			fmt.Printf("process %d exited with status %d\n", p.Pid(), si.ExitStatus)
			return nil
		case proc.EventKill:
			fmt.Printf("process %d killed\n", p.Pid())
			return nil
		}
		fmt.Printf("thread %d stopped: %s", th.ThreadID(), si.Reason)
		if si.Reason == proc.ReasonSignal {
			fmt.Printf(" (signal %d)", si.Signal)
		}
		fmt.Println()
		if interrupt {
			fmt.Println("detaching")
			return p.Detach()
		}
	}
}

// peek reads the string at the requested address, bounded by the configured
// max-string-len.
func peek(p proc.Process) error {
	addr, err := strconv.ParseUint(peekAddr, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid address: %q", peekAddr)
	}
	maxLen := 256
	if conf.MaxStringLen != nil {
		maxLen = *conf.MaxStringLen
	}
	s, err := p.ReadString(addr, maxLen)
	if err != nil {
		return err
	}
	fmt.Printf("%#x: %q\n", addr, s)
	return nil
}
