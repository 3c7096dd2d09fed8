package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhpenta/mifoto"
	"github.com/mhpenta/mifoto/session"
)

type editFlags struct {
	in          string
	out         string
	model       string
	aspectRatio string
}

func (f *editFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in, "in", "", "Input image path or data: URI")
	cmd.Flags().StringVar(&f.out, "out", "", "Output image path")
	cmd.Flags().StringVar(&f.model, "model", "", "Model (nano-banana-1, nano-banana-2)")
	cmd.Flags().StringVar(&f.aspectRatio, "aspect-ratio", "", "Output aspect ratio, e.g. 16:9")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
}

func (f *editFlags) config() *mifoto.EditConfig {
	cfg := mifoto.DefaultConfig().WithModel(mifoto.Model(f.model))
	cfg.AspectRatio = mifoto.AspectRatio(f.aspectRatio)
	return cfg
}

func newEditCmd(rt *env) *cobra.Command {
	var (
		flags  editFlags
		prompt string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply a text instruction to a photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, rt, &flags, func(s *session.Session) (*mifoto.EditResult, error) {
				return s.Generate(cmd.Context(), prompt)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Edit instruction")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newUpscaleCmd(rt *env) *cobra.Command {
	var flags editFlags
	cmd := &cobra.Command{
		Use:   "upscale",
		Short: "Increase resolution and detail without changing the style",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, rt, &flags, func(s *session.Session) (*mifoto.EditResult, error) {
				return s.Upscale(cmd.Context())
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func runAction(cmd *cobra.Command, rt *env, flags *editFlags, action func(*session.Session) (*mifoto.EditResult, error)) error {
	image, name, err := readInput(flags.in)
	if err != nil {
		return err
	}

	a, err := rt.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.NewSession(BrowserID, session.WithEditConfig(flags.config()))
	if err := s.Upload(name, image); err != nil {
		return err
	}

	result, err := action(s)
	if err != nil {
		printEditError(cmd.ErrOrStderr(), err)
		return err
	}

	if err := os.WriteFile(flags.out, result.Image.Data, 0o644); err != nil {
		return err
	}

	snap, err := s.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d tokens, %d used today)\n",
		flags.out, result.Model, result.TokensUsed, snap.Usage.Count)
	return nil
}

// readInput loads the photo from a file or decodes an inline data URI.
func readInput(in string) (mifoto.InputImage, string, error) {
	if strings.HasPrefix(in, "data:") {
		image, err := mifoto.DecodeDataURI(in)
		if err != nil {
			return mifoto.InputImage{}, "", err
		}
		return image, "input." + mifoto.ExtensionFromMIME(image.MIMEType), nil
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return mifoto.InputImage{}, "", err
	}
	image := mifoto.InputImage{
		Data:     data,
		MIMEType: mifoto.DetectMIMEType(data, mifoto.GetMIMEType(in)),
	}
	return image, filepath.Base(in), nil
}

// printEditError adds the details an EditError carries beyond its message.
func printEditError(w io.Writer, err error) {
	var editErr *mifoto.EditError
	if !errors.As(err, &editErr) {
		return
	}
	if editErr.Kind == mifoto.KindMissingCredential || editErr.Kind == mifoto.KindInvalidCredential {
		fmt.Fprintln(w, "Set a key with: mifoto key set")
	}
	for _, link := range editErr.Links {
		fmt.Fprintf(w, "%s: %s\n", link.Title, link.URL)
	}
}
