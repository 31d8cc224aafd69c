package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/iohe/sensirion-hdlc/hdlc"
	"github.com/iohe/sensirion-hdlc/internal/config"
	"github.com/iohe/sensirion-hdlc/internal/link"
	"github.com/iohe/sensirion-hdlc/internal/logging"
	"github.com/iohe/sensirion-hdlc/internal/serial"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFlag   string
	portFlag     string
	baudFlag     int
	timeoutFlag  time.Duration
	logLevelFlag string
	waitFlag     bool
	quietFlag    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sensirion-hdlc",
		Short: "Encode, decode and capture Sensirion HDLC frames",
		Long: `sensirion-hdlc frames payloads with the byte stuffing used by Sensirion
SHDLC sensors: 0x7E delimits frames, 0x7D escapes reserved bytes.

Payloads and frames are given as hex, e.g. "7E 00 01 00 FE 7E".`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "Serial port")
	rootCmd.PersistentFlags().IntVarP(&baudFlag, "baud", "b", serial.DefaultBaudRate, "Baud rate")
	rootCmd.PersistentFlags().DurationVarP(&timeoutFlag, "timeout", "t", time.Second, "Reply timeout")

	encodeCmd := &cobra.Command{
		Use:   "encode <hex>...",
		Short: "Encode a payload into a frame",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEncode,
	}

	decodeCmd := &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode a frame into its payload",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecode,
	}

	scanCmd := &cobra.Command{
		Use:   "scan <capture.bin>",
		Short: "Decode every frame in a binary capture file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Only print the summary")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		RunE:  runList,
	}

	sendCmd := &cobra.Command{
		Use:   "send <hex>...",
		Short: "Send a payload to a device",
		Long: `Encode the payload, write it to the serial port and, with --wait,
print the next well-formed frame received.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSend,
	}
	sendCmd.Flags().BoolVarP(&waitFlag, "wait", "w", true, "Wait for a reply frame")

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print frames received on a serial port",
		RunE:  runMonitor,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sensirion-hdlc %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, scanCmd, listCmd, sendCmd, monitorCmd, versionCmd)
	return rootCmd
}

// loadConfig resolves the config file and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = portFlag
	}
	if flags.Changed("baud") {
		cfg.BaudRate = baudFlag
	}
	if flags.Changed("timeout") {
		cfg.ReplyTimeout = timeoutFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return logging.New(cfg.Log, cmd.ErrOrStderr())
}

func runEncode(cmd *cobra.Command, args []string) error {
	payload, err := parseHex(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatHex(hdlc.Encode(payload)))
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	frame, err := parseHex(args)
	if err != nil {
		return err
	}
	payload, err := hdlc.Decode(frame)
	if err != nil {
		return fmt.Errorf("decode failed (%s): %w", hdlc.Kind(err), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatHex(payload))
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat capture: %w", err)
	}

	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	src := progressbar.NewReader(f, bar)

	l := link.New(struct {
		io.Reader
		io.Writer
	}{&src, io.Discard}, logger, cfg.MaxFrameSize)

	n := 0
	err = l.Monitor(cmd.Context(), func(payload []byte) error {
		n++
		if !quietFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s\n", n, formatHex(payload))
		}
		return nil
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}

	printStats(cmd.OutOrStdout(), l.Stats())
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Available serial ports:")
	for _, p := range ports {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
	}

	return nil
}

func openLink(cfg config.Config, logger zerolog.Logger) (*link.Link, *serial.Port, error) {
	if cfg.Port == "" {
		return nil, nil, errors.New("no serial port given (use --port or the config file)")
	}
	port, err := serial.Open(cfg.Port, cfg.BaudRate, cfg.ReadTimeout)
	if err != nil {
		return nil, nil, err
	}
	if err := port.Flush(); err != nil {
		logger.Warn().Err(err).Msg("failed to flush input buffer")
	}
	logger.Info().Str("port", cfg.Port).Int("baud", cfg.BaudRate).Msg("port open")
	return link.New(port, logger, cfg.MaxFrameSize), port, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	payload, err := parseHex(args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	l, port, err := openLink(cfg, logger)
	if err != nil {
		return err
	}
	defer port.Close()

	if !waitFlag {
		return l.Send(payload)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ReplyTimeout)
	defer cancel()

	reply, err := l.Transact(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatHex(reply))
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	l, port, err := openLink(cfg, logger)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "Monitoring, press Ctrl+C to stop")
	err = l.Monitor(ctx, func(payload []byte) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", time.Now().Format("15:04:05.000"), formatHex(payload))
		return nil
	})
	if err != nil {
		return err
	}

	printStats(cmd.OutOrStdout(), l.Stats())
	return nil
}

func printStats(out io.Writer, st link.Stats) {
	fmt.Fprintf(out, "\nFrames: %d ok, %d dropped, %d bytes skipped\n", st.Received, st.DroppedTotal(), st.Skipped)
	for kind, n := range st.Dropped {
		fmt.Fprintf(out, "  %-20s %d\n", kind, n)
	}
}
