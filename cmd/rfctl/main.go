package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danmuck/rfctl/internal/auth"
	"github.com/danmuck/rfctl/internal/config"
	"github.com/danmuck/rfctl/internal/controller"
	"github.com/danmuck/rfctl/internal/logging"
	"github.com/danmuck/rfctl/internal/observability"
	"github.com/danmuck/rfctl/internal/protocol"
	"github.com/danmuck/rfctl/internal/protocol/codec"
	"github.com/danmuck/rfctl/internal/server"
	"github.com/danmuck/rfctl/internal/transport"
)

var errUsage = errors.New("usage")

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(string) error {
	*v++
	return nil
}

// idFlag is a remote or device id that remembers whether it was given.
type idFlag struct {
	value uint32
	set   bool
}

func (f *idFlag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return strconv.FormatUint(uint64(f.value), 10)
}

func (f *idFlag) Set(raw string) error {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid id %q", raw)
	}
	f.value = uint32(v)
	f.set = true
	return nil
}

func (f *idFlag) ptr() *uint32 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

type options struct {
	configPath string
	hw         string
	proto      string
	remote     idFlag
	device     idFlag
	command    string
	scan       bool
	frames     int
	raw        bool
	accuracy   int
	verbose    verbosity
	serve      bool
	list       bool
	memory     bool

	set map[string]bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("rfctl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.configPath, "config", "", "path to config file")
	fs.StringVar(&o.hw, "hw", "", "transport: "+strings.Join(transport.Builtin().Names(), ", "))
	fs.StringVar(&o.proto, "p", "", "protocol cmd name or index")
	fs.Var(&o.remote, "r", "remote id")
	fs.Var(&o.device, "d", "device id")
	fs.StringVar(&o.command, "c", "", "command: "+commandList())
	fs.BoolVar(&o.scan, "s", false, "scan every id the protocol needs")
	fs.IntVar(&o.frames, "n", 0, "override frame count (1-255)")
	fs.BoolVar(&o.raw, "raw", false, "convert frames to raw before sending")
	fs.IntVar(&o.accuracy, "accuracy", 0, "raw conversion accuracy (0-100)")
	fs.Var(&o.verbose, "v", "increase log verbosity (repeatable)")
	fs.BoolVar(&o.serve, "serve", false, "run the HTTP API")
	fs.BoolVar(&o.list, "list", false, "list protocols and transports")
	fs.BoolVar(&o.memory, "memory", false, "keep rolling codes in memory")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func commandList() string {
	names := make([]string, 0, 8)
	for _, c := range protocol.Commands() {
		names = append(names, c.Name())
	}
	return strings.Join(names, ", ")
}

// resolveConfig layers command line overrides over the file or defaults.
func resolveConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := loadConfig(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.set["hw"] {
		cfg.Transport = o.hw
	}
	if o.set["n"] {
		cfg.FrameCount = o.frames
	}
	if o.set["accuracy"] {
		cfg.Accuracy = o.accuracy
	}
	if o.raw {
		cfg.ForceRaw = true
	}
	if o.memory {
		cfg.MemoryStore = true
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// missingParams names the parameters cd needs that were not given.
func missingParams(d codec.Descriptor, o options) []string {
	var given codec.Needs
	if o.remote.set {
		given |= codec.NeedRemote
	}
	if o.device.set {
		given |= codec.NeedDevice
	}
	if o.command != "" {
		given |= codec.NeedCommand
	}
	return d.Missing(given).Names()
}

func listProtocols(out io.Writer, codecs *codec.Registry) {
	fmt.Fprintln(out, "Protocols:")
	for i, cd := range codecs.List() {
		d := cd.Descriptor()
		cmds := make([]string, 0, len(d.Commands))
		for _, c := range d.Commands {
			cmds = append(cmds, c.Name())
		}
		fmt.Fprintf(out, "  %d %-8s %-24s needs=%s commands=%s\n",
			i, d.CmdName, d.Name, strings.Join(d.Needs.Names(), ","), strings.Join(cmds, ","))
	}
	fmt.Fprintln(out, "Transports:")
	for _, name := range transport.Builtin().Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}
}

func printResult(out io.Writer, r controller.Result) {
	fmt.Fprintf(out, "Sending %s command '%s' to device %d, remote %d\n", r.Name, r.Command, r.Device, r.Remote)
	fmt.Fprintf(out, "  %s %d bits: %s\n", r.Native.Timing.Format, r.Native.BitCount, r.Native.Data)
	if r.Raw != nil {
		fmt.Fprintf(out, "  raw base=%dus %d bits\n", r.Raw.Timing.BaseTime, r.Raw.BitCount)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	logging.ConfigureVerbosity(int(o.verbose))
	logger := observability.InitLogger("rfctl")

	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}
	codecs := codec.Builtin(cfg.Store(), logger)
	if o.list {
		listProtocols(out, codecs)
		return nil
	}

	var cmd protocol.Command
	if !o.serve {
		if o.command == "" {
			return fmt.Errorf("%w: -c is required", errUsage)
		}
		if cmd, err = protocol.ParseCommand(o.command); err != nil {
			return err
		}
		if !o.scan && o.proto == "" {
			return fmt.Errorf("%w: -p is required unless scanning", errUsage)
		}
	}

	topts, err := cfg.TransportOptions()
	if err != nil {
		return err
	}
	tr, err := transport.Open(cfg.Transport, topts, logger)
	if err != nil {
		return err
	}
	defer tr.Close()

	ctrl, err := controller.New(codecs, tr, cfg.ControllerOptions(), logger)
	if err != nil {
		return err
	}

	switch {
	case o.serve:
		srv := server.New(ctrl, cfg.HTTPAddr, cfg.CorsOrigins, logger)
		if cfg.APIToken != "" {
			srv.RequireToken(auth.StaticToken{Token: cfg.APIToken})
		}
		return srv.Serve(ctx)
	case o.scan:
		req := controller.ScanRequest{
			Remote:  o.remote.ptr(),
			Device:  o.device.ptr(),
			Command: cmd,
		}
		if o.proto != "" {
			req.Protocol = &o.proto
		}
		sent, err := ctrl.Scan(ctx, req, func(r controller.Result, err error) {
			if err != nil {
				logger.Warn().Err(err).Str("protocol", r.Protocol).Uint32("remote", r.Remote).Uint32("device", r.Device).Msg("scan step failed")
				return
			}
			printResult(out, r)
		})
		fmt.Fprintf(out, "Scan sent %d commands\n", sent)
		return err
	default:
		cd, err := codecs.Lookup(o.proto)
		if err != nil {
			return err
		}
		d := cd.Descriptor()
		if missing := missingParams(d, o); len(missing) > 0 {
			return fmt.Errorf("%w: %s needs %s", errUsage, d.CmdName, strings.Join(missing, ", "))
		}
		r, err := ctrl.Send(ctx, controller.Request{
			Protocol: d.CmdName,
			Remote:   o.remote.value,
			Device:   o.device.value,
			Command:  cmd,
		})
		if err != nil {
			return err
		}
		printResult(out, r)
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "rfctl: %v\n", err)
		os.Exit(1)
	}
}
