package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/debemdeboas/postboard/internal/app"
	"github.com/debemdeboas/postboard/internal/editor"
	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/model"
)

var errIncomplete = errors.New("title, content and image are all required")

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateFormat(format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(a *app.App) error {
				posts := a.Store.List()
				if format == "json" {
					return writePostsJSON(cmd.OutOrStdout(), posts)
				}
				writePostsText(cmd.OutOrStdout(), posts, a.Config.Site.EmptyMessage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	return cmd
}

type postFlags struct {
	title   string
	content string
	image   string
}

func (f *postFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&f.content, "content", "m", "", "post body")
	cmd.Flags().StringVarP(&f.image, "image", "i", "", "path to the image file")
}

// fill pushes the flags that were set on the command line into the form.
// An image path is encoded before returning.
func (f *postFlags) fill(ctx context.Context, cmd *cobra.Command, c *editor.Controller, enc *imaging.Encoder) error {
	if cmd.Flags().Changed("title") {
		if err := c.SetField(editor.FieldTitle, f.title); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("content") {
		if err := c.SetField(editor.FieldContent, f.content); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("image") {
		uri, err := enc.EncodeSync(ctx, imaging.FileSource{Path: f.image})
		if err != nil {
			return err
		}
		if err := c.SetField(editor.FieldImage, uri); err != nil {
			return err
		}
	}
	return nil
}

func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &postFlags{}

	cmd := &cobra.Command{
		Use:   "add --title TITLE --content TEXT --image PATH",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(a *app.App) error {
				if err := flags.fill(cmd.Context(), cmd, a.Editor, a.Encoder); err != nil {
					return err
				}
				if a.Editor.Submit() != editor.Created {
					return errIncomplete
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created post %s\n", a.Store.List()[0].ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &postFlags{}

	cmd := &cobra.Command{
		Use:   "edit ID [--title TITLE] [--content TEXT] [--image PATH]",
		Short: "Edit a post; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParsePostID(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q: %w", args[0], err)
			}

			return rootOpts.withApp(cmd.Context(), func(a *app.App) error {
				p, ok := a.Store.Get(id)
				if !ok {
					return fmt.Errorf("post %s not found", id)
				}

				a.Editor.StartEdit(p)
				if err := flags.fill(cmd.Context(), cmd, a.Editor, a.Encoder); err != nil {
					a.Editor.Cancel()
					return err
				}
				if a.Editor.Submit() != editor.Updated {
					return errIncomplete
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated post %s\n", id)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParsePostID(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q: %w", args[0], err)
			}

			return rootOpts.withApp(cmd.Context(), func(a *app.App) error {
				if !a.Store.Delete(id) {
					return fmt.Errorf("post %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s\n", id)
				return nil
			})
		},
	}
}
