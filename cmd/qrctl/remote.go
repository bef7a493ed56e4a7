package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/payload"
	"github.com/bcnelson/qr-template-studio/internal/service"
	"github.com/bcnelson/qr-template-studio/internal/tlv"
	"github.com/spf13/cobra"
)

func (o *options) qrService(cmd *cobra.Command, seedFile string) (*service.QRService, error) {
	logger, err := o.logger(cmd)
	if err != nil {
		return nil, err
	}
	client, err := o.client(cmd)
	if err != nil {
		return nil, err
	}
	templates, err := loadTemplates(cmd.Context(), seedFile, logger)
	if err != nil {
		return nil, err
	}
	return service.NewQRService(client, nil, templates, logger), nil
}

func generateCmd(opts *options) *cobra.Command {
	var (
		req      domain.GenerateQRCodeRequest
		data     string
		file     string
		dynamic  bool
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a QR code through the QR API",
		Long: heredoc.Doc(`
			Generate a static or dynamic QR code. Without --data the payload is
			the sample of the template selected by --template-id.
		`),
		Args: cobra.NoArgs,
		Example: heredoc.Doc(`
			$ qrctl generate --template-id 1
			$ qrctl generate --dynamic --journey PAYMENT --data '{"amount":"10.00"}'
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data != "" {
				obj, err := payload.ParseObject([]byte(data))
				if err != nil {
					return fmt.Errorf("--data: %w", err)
				}
				req.Data = obj
			}
			svc, err := opts.qrService(cmd, file)
			if err != nil {
				return err
			}

			generate := svc.GenerateStatic
			if dynamic {
				generate = svc.GenerateDynamic
			}
			res, err := generate(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res.GenerateQRCodeResponse); err != nil {
				return err
			}
			if showTree {
				return tlv.Write(cmd.OutOrStdout(), res.TLV.Nodes)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.TemplateID, "template-id", 0, "template to generate from")
	cmd.Flags().StringVar(&req.Journey, "journey", "", "journey type (default: the template's)")
	cmd.Flags().StringVar(&data, "data", "", "JSON payload (default: the template sample)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON template file (default: built-in template)")
	cmd.Flags().StringVar(&req.ResponseFormat, "format", "", "response format: image or pdf")
	cmd.Flags().BoolVar(&dynamic, "dynamic", false, "generate a dynamic QR code")
	cmd.Flags().BoolVar(&showTree, "tlv", false, "also print the TLV tree of the QR string")
	return cmd
}

func verifyCmd(opts *options) *cobra.Command {
	var (
		req      domain.VerifyQRCodeRequest
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "verify [qr-string|-]",
		Short: "Verify a QR string through the QR API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			req.QRString = raw
			svc, err := opts.qrService(cmd, "")
			if err != nil {
				return err
			}
			res, err := svc.Verify(cmd.Context(), &req)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res.VerifyQRCodeResponse); err != nil {
				return err
			}
			if showTree {
				return tlv.Write(cmd.OutOrStdout(), res.TLV.Nodes)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.RequestMessageID, "message-id", "", "request message id (default: random UUID)")
	cmd.Flags().StringVar(&req.ChannelID, "channel", "", "channel id")
	cmd.Flags().BoolVar(&showTree, "tlv", false, "also print the TLV tree of the decoded data")
	return cmd
}

func callbackCmd(opts *options) *cobra.Command {
	var req domain.PaymentCallbackRequest

	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Report a completed payment to the QR API",
		Args:  cobra.NoArgs,
		Example: heredoc.Doc(`
			$ qrctl callback --ref REF123456 --payment-ref PAY-1
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.qrService(cmd, "")
			if err != nil {
				return err
			}
			res, err := svc.PaymentCallback(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.PaymentCallbackResponse)
		},
	}

	cmd.Flags().StringVar(&req.ReferenceNumber, "ref", "", "reference number of the generated QR code")
	cmd.Flags().StringVar(&req.PaymentRef, "payment-ref", "", "payment reference")
	cmd.Flags().StringVar(&req.RequestMessageID, "message-id", "", "request message id")
	return cmd
}
