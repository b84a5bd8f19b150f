package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/roach88/samwire/internal/model"
	"github.com/roach88/samwire/internal/server"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Manifest  string
	Path      string
	Proposals []string // JSON objects, accepted in order
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	HTML  string       `json:"html"`
	Model model.Object `json:"model"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a server-rendered page",
		Long: `Render the application to a complete HTML document, including the
state carrier and the dispatcher script a client hydrates from.

Examples:
  samwire render
  samwire render --path "/index?filter=done"
  samwire render --manifest ./app.cue --propose '{"add": "milk"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "CUE manifest file or package directory")
	cmd.Flags().StringVar(&opts.Path, "path", "/", "location to route to")
	cmd.Flags().StringArrayVar(&opts.Proposals, "propose", nil, "JSON object accepted before rendering (repeatable)")

	return cmd
}

func runRender(ctx context.Context, opts *RenderOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := loadManifest(opts.Manifest)
	if err != nil {
		return err
	}
	loc, err := url.Parse(opts.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid path", err)
	}
	proposed := make([]model.Object, 0, len(opts.Proposals))
	for i, raw := range opts.Proposals {
		o, err := model.ParseObject([]byte(raw))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --propose[%d]", i), err)
		}
		proposed = append(proposed, o)
	}

	srv := server.New(server.Config{
		Manifest: m,
		Logger:   opts.newLogger(cmd.ErrOrStderr()),
	})
	page, err := srv.RenderPage(ctx, loc, proposed)
	if err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "ok",
			Data:   RenderResult{HTML: page.HTML, Model: page.Model},
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), page.HTML)
	return nil
}
