package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/heathj/richtext/css"
	"github.com/heathj/richtext/parser"
	"github.com/heathj/richtext/sanitize"
)

// input opens the file named by the first argument, or returns stdin.
func input(cmd *cli.Command, stdin io.Reader) (io.ReadCloser, error) {
	name := cmd.Args().Get(0)
	if name == "" || name == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	return f, nil
}

func readInput(cmd *cli.Command, stdin io.Reader) (s string, err error) {
	r, err := input(cmd, stdin)
	if err != nil {
		return "", err
	}
	defer func() {
		if er := r.Close(); er != nil {
			err = multierr.Append(err, errors.Wrap(er, "closing input"))
		}
	}()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "reading input")
	}
	return string(b), nil
}

func loadPolicy(cmd *cli.Command) (*sanitize.Policy, error) {
	path := cmd.String("policy")
	if path == "" {
		return sanitize.DefaultPolicy, nil
	}
	return sanitize.LoadPolicy(path)
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	log := logrus.WithField("component", "richtext")

	policyFlag := &cli.StringFlag{Name: "policy", Aliases: []string{"p"}, Usage: "load the sanitizer policy from `FILE` (YAML)"}

	return &cli.Command{
		Name:  "richtext",
		Usage: "tokenize, sanitize and inspect rich text HTML fragments",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log recovery from malformed markup"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if cmd.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "tokens",
				Usage:     "print the tokens of an HTML fragment, one per line",
				ArgsUsage: "[FILE]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					in, err := readInput(cmd, stdin)
					if err != nil {
						return err
					}
					p := parser.NewParser(in, parser.WithLogger(log))
					var werr error
					p.Each(func(t parser.Token) {
						if werr == nil {
							_, werr = fmt.Fprintln(stdout, t.String())
						}
					})
					return werr
				},
			},
			{
				Name:      "style",
				Usage:     "print the declarations of a style attribute",
				ArgsUsage: "STYLE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "background", Usage: "print only the background color"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("style: expected exactly one STYLE argument")
					}
					style := cmd.Args().Get(0)

					if cmd.Bool("background") {
						c, ok := css.ExtractBackgroundColor(style)
						if !ok {
							return errors.New("style: no background color")
						}
						_, err := fmt.Fprintln(stdout, c)
						return err
					}

					decls, err := css.Declarations(style)
					if err != nil {
						return errors.Wrap(err, "style")
					}
					for _, d := range decls {
						if _, err := fmt.Fprintln(stdout, d.String()); err != nil {
							return err
						}
					}
					return nil
				},
			},
			{
				Name:      "sanitize",
				Usage:     "strip an HTML fragment down to the markup allowed by a policy",
				ArgsUsage: "[FILE]",
				Flags:     []cli.Flag{policyFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					policy, err := loadPolicy(cmd)
					if err != nil {
						return err
					}
					in, err := readInput(cmd, stdin)
					if err != nil {
						return err
					}

					warnings, err := sanitize.New(policy, sanitize.WithLogger(log)).SanitizeTo(stdout, in)
					for _, w := range multierr.Errors(warnings) {
						log.WithError(w).Warn("dropped style attribute")
					}
					return err
				},
			},
			{
				Name:  "policy",
				Usage: "print the sanitizer policy as YAML",
				Flags: []cli.Flag{policyFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					policy, err := loadPolicy(cmd)
					if err != nil {
						return err
					}
					enc := yaml.NewEncoder(stdout)
					enc.SetIndent(2)
					if err := enc.Encode(policy); err != nil {
						return errors.Wrap(err, "encoding policy")
					}
					return enc.Close()
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newApp(os.Stdin, os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		logrus.WithError(err).Error("richtext failed")
		os.Exit(1)
	}
}
