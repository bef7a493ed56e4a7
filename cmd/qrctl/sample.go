package main

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/bcnelson/qr-template-studio/internal/seed"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/bcnelson/qr-template-studio/internal/storage/memory"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadTemplates applies a seed file, or the built-in seed when path is
// empty, to a fresh in-memory store.
func loadTemplates(ctx context.Context, path string, logger logrus.FieldLogger) (*service.TemplateService, error) {
	f := seed.Default()
	if path != "" {
		var err error
		if f, err = seed.Load(path); err != nil {
			return nil, err
		}
	}
	svc := service.NewTemplateService(memory.New(), logger)
	if _, err := seed.Apply(ctx, svc, f, logger); err != nil {
		return nil, err
	}
	return svc, nil
}

func sampleCmd(opts *options) *cobra.Command {
	var file, name string
	var showTLV bool

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print the sample payload of each template",
		Args:  cobra.NoArgs,
		Example: heredoc.Doc(`
			$ qrctl sample
			$ qrctl sample -f templates.yaml --template "Basic Payment QR" --tlv
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}
			svc, err := loadTemplates(cmd.Context(), file, logger)
			if err != nil {
				return err
			}
			templates, err := svc.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			found := false
			for _, t := range templates {
				if name != "" && t.Name != name {
					continue
				}
				found = true
				sample, err := svc.Sample(cmd.Context(), t.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s (%s)\n%s\n", t.Name, t.JourneyID, sample.JSON)
				if showTLV {
					if err := tlv.Write(out, tlv.Build(sample.Payload)); err != nil {
						return err
					}
				}
			}
			if name != "" && !found {
				return fmt.Errorf("template %q not found", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON template file (default: built-in template)")
	cmd.Flags().StringVarP(&name, "template", "t", "", "only print the template with this name")
	cmd.Flags().BoolVar(&showTLV, "tlv", false, "also print the TLV tree of each sample")
	return cmd
}
