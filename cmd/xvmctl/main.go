// Command xvmctl is the reference differential-testing CLI of §6: it
// is not prescriptive, but gives fuzzers and other implementations a
// stable shell interface to drive the VM and the machine001 driver
// from hex-encoded arguments.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/massvault/xvm/config"
	"github.com/massvault/xvm/internal/logging"
	"github.com/massvault/xvm/machine001"
	"github.com/massvault/xvm/p256oracle"
	"github.com/massvault/xvm/stackvm"
	"gopkg.in/urfave/cli.v1"
)

var logFileFlag = cli.StringFlag{
	Name:  "log-file",
	Usage: "rotate structured logs to this strftime pattern; WARN and ERROR still go to stderr (e.g. xvmctl.%Y%m%d.log)",
}

var stackCapacityFlag = cli.IntFlag{
	Name:  "stack-capacity",
	Usage: "override the registered byte-stack capacity bound for this process (defaults to the spec's 1024)",
}

func main() {
	app := cli.NewApp()
	app.Name = "xvmctl"
	app.Usage = "drive the stack VM and the machine001 driver from hex-encoded arguments"
	app.Flags = []cli.Flag{logFileFlag, stackCapacityFlag}
	app.Before = setup
	app.Commands = []cli.Command{
		evalCommand,
		m001Command,
		disasmCommand,
	}
	app.Action = func(ctx *cli.Context) error {
		cli.ShowAppHelp(ctx)
		return cli.NewExitError("", 1)
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup applies the process-wide flags before any subcommand runs: a
// rotating log file in place of stderr, and/or a registered Params
// override for the resource bounds the VM runs against. Both are
// process-startup, register-once concerns (per config.Register's
// contract), so they belong here rather than in any one subcommand.
func setup(ctx *cli.Context) error {
	if pattern := ctx.GlobalString(logFileFlag.Name); pattern != "" {
		if err := logging.UseRotatingFile(pattern, 7*24*time.Hour, 24*time.Hour); err != nil {
			return cli.NewExitError(fmt.Sprintf("log-file: %v", err), 1)
		}
	}

	if ctx.GlobalIsSet(stackCapacityFlag.Name) {
		params := config.MainNetParams
		params.StackCapacity = ctx.GlobalInt(stackCapacityFlag.Name)
		if err := config.Register(params); err != nil {
			return cli.NewExitError(fmt.Sprintf("stack-capacity: %v", err), 1)
		}
	}
	return nil
}

var evalCommand = cli.Command{
	Name:      "eval",
	Usage:     "run a single program against a message and optional device id",
	ArgsUsage: "<hex_code> <hex_msg> [hex_device_id]",
	Action:    runEval,
}

var m001Command = cli.Command{
	Name:      "m001",
	Usage:     "run the two-phase machine001 witness/policy protocol",
	ArgsUsage: "<hex_xpubkey> <hex_xsig> <hex_msg> [hex_device_id]",
	Action:    runM001,
}

var disasmCommand = cli.Command{
	Name:      "disasm",
	Usage:     "disassemble a program to a human-readable listing",
	ArgsUsage: "<hex_code>",
	Action:    runDisasm,
}

func runDisasm(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("usage: xvmctl disasm <hex_code>", 1)
	}
	code, err := hex.DecodeString(args[0])
	if err != nil {
		return cli.NewExitError("bad hex in code argument", 1)
	}
	out, err := stackvm.Disassemble(code)
	fmt.Print(out)
	if err != nil {
		fmt.Printf("halt: %v\n", err)
	}
	return nil
}

func runEval(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 2 || len(args) > 3 {
		return cli.NewExitError("usage: xvmctl eval <hex_code> <hex_msg> [hex_device_id]", 1)
	}

	code, err := hex.DecodeString(args[0])
	if err != nil {
		return cli.NewExitError("bad hex in code argument", 1)
	}
	msg, err := hex.DecodeString(args[1])
	if err != nil {
		return cli.NewExitError("bad hex in msg argument", 1)
	}
	dctx, err := parseDeviceArg(args, 2)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	ev := stackvm.NewEvaluator(code, msg, dctx, p256oracle.Standard)
	if err := ev.Run(); err != nil {
		logging.CPrint(logging.DEBUG, "xvmctl: eval halted", logging.LogFormat{"err": err.Error()})
		fmt.Println("error")
		return nil
	}
	fmt.Printf("ok:%s\n", hex.EncodeToString(ev.Stack().Bytes()))
	return nil
}

func runM001(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 3 || len(args) > 4 {
		return cli.NewExitError("usage: xvmctl m001 <hex_xpubkey> <hex_xsig> <hex_msg> [hex_device_id]", 1)
	}

	xpubkey, err := hex.DecodeString(args[0])
	if err != nil {
		return cli.NewExitError("bad hex in xpubkey argument", 1)
	}
	xsig, err := hex.DecodeString(args[1])
	if err != nil {
		return cli.NewExitError("bad hex in xsig argument", 1)
	}
	msg, err := hex.DecodeString(args[2])
	if err != nil {
		return cli.NewExitError("bad hex in msg argument", 1)
	}
	dctx, err := parseDeviceArg(args, 3)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	ok := machine001.Result(xpubkey, xsig, msg, dctx, p256oracle.Standard)
	if ok {
		fmt.Println("1")
	} else {
		fmt.Println("0")
	}
	return nil
}

// parseDeviceArg decodes the optional trailing device-id hex argument
// at index idx, if present, and enforces the 32-octet length the CLI
// contract requires up front rather than deferring to ErrBadDeviceID.
func parseDeviceArg(args cli.Args, idx int) (*stackvm.DeviceContext, error) {
	if idx >= len(args) {
		return nil, nil
	}
	id, err := hex.DecodeString(args[idx])
	if err != nil {
		return nil, fmt.Errorf("bad hex in device id argument")
	}
	if len(id) != 32 {
		return nil, fmt.Errorf("device id must be exactly 32 bytes, got %d", len(id))
	}
	return &stackvm.DeviceContext{ID: id}, nil
}
