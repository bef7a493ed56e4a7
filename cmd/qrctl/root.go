package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/bcnelson/qr-template-studio/internal/config"
	"github.com/bcnelson/qr-template-studio/internal/qrapi"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	apiURL   string
	timeout  time.Duration
	retries  uint64
	mock     bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	defaults := config.QRAPIConfig{BaseURL: qrapi.DefaultBaseURL, Timeout: 10 * time.Second, Retries: 2}
	if cfg, err := config.Load(".env"); err == nil {
		defaults = cfg.QRAPI
	}

	cmd := &cobra.Command{
		Use:           "qrctl <command>",
		Short:         "Work with QR payload templates",
		Long:          "Generate sample payloads from templates, inspect payloads as TLV trees and call the QR API.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Example: heredoc.Doc(`
			$ qrctl sample -f templates.yaml
			$ qrctl tlv '{"amount":"123456"}'
			$ echo "$QR" | qrctl tlv -
			$ qrctl verify --mock 000201010212
		`),
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", defaults.BaseURL, "QR API base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "per-attempt QR API timeout")
	cmd.PersistentFlags().Uint64Var(&opts.retries, "retries", defaults.Retries, "retries on QR API failures")
	cmd.PersistentFlags().BoolVar(&opts.mock, "mock", false, "answer QR API calls locally with mock responses")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(sampleCmd(opts))
	cmd.AddCommand(tlvCmd(opts))
	cmd.AddCommand(generateCmd(opts))
	cmd.AddCommand(verifyCmd(opts))
	cmd.AddCommand(callbackCmd(opts))
	return cmd
}

func (o *options) logger(cmd *cobra.Command) (*logrus.Logger, error) {
	cfg := config.LogConfig{Level: o.logLevel, Format: "text"}
	return cfg.NewLogger(cmd.ErrOrStderr())
}

func (o *options) client(cmd *cobra.Command) (qrapi.Client, error) {
	if o.mock {
		return qrapi.NewMockClient(uint64(time.Now().UnixNano())), nil
	}
	logger, err := o.logger(cmd)
	if err != nil {
		return nil, err
	}
	return qrapi.NewHTTPClient(o.apiURL,
		qrapi.WithTimeout(o.timeout),
		qrapi.WithRetries(o.retries),
		qrapi.WithLogger(logger),
	), nil
}

// readInput returns args[0], or stdin when the argument is "-" or absent.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && f == os.Stdin {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no input: pass a payload argument or pipe one on stdin")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
