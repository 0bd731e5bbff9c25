package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/CTAG07/Verbena/pkg/media"
	"github.com/spf13/cobra"
)

// `verbena render`
func renderCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render media markup from the command line",
	}
	cmd.AddCommand(renderImageCmd(configPath))
	cmd.AddCommand(renderSVGCmd(configPath))
	cmd.AddCommand(renderURLCmd(configPath))
	return cmd
}

type attrFlags struct {
	class string
	attrs []string
}

func (f *attrFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.class, "class", "", "class attribute")
	cmd.Flags().StringArrayVar(&f.attrs, "attr", nil, "extra attribute as name=value, or a bare name for a flag attribute (repeatable)")
}

// attributes builds the Attributes given on the command line, or nil.
func (f *attrFlags) attributes() (media.Attributes, error) {
	var items []any
	if f.class != "" {
		items = append(items, media.Pair("class", f.class))
	}
	for _, a := range f.attrs {
		name, value, ok := strings.Cut(a, "=")
		if ok {
			items = append(items, media.Pair(name, value))
		} else {
			items = append(items, media.Flag(name))
		}
	}
	if len(items) == 0 {
		return nil, nil
	}
	return media.NormalizeAttributes(items)
}

// `verbena render image ID [SIZE]`
func renderImageCmd(configPath *string) *cobra.Command {
	var flags attrFlags
	cmd := &cobra.Command{
		Use:   "image ID [SIZE]",
		Short: "Print <img> markup for an attachment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attachment id %q", args[0])
			}
			size := ""
			if len(args) == 2 {
				size = args[1]
			}
			attrs, err := flags.attributes()
			if err != nil {
				return err
			}
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				markup, err := a.helpers.Image(ctx, id, size, attrs)
				if err != nil {
					return err
				}
				if markup == "" {
					return fmt.Errorf("no image attachment with id %d", id)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), markup)
				return err
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// `verbena render svg REF`
func renderSVGCmd(configPath *string) *cobra.Command {
	var (
		flags attrFlags
		id    string
	)
	cmd := &cobra.Command{
		Use:   "svg REF",
		Short: "Print an SVG file with attributes added to its root tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := flags.attributes()
			if err != nil {
				return err
			}
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				markup, err := a.helpers.SVG(ctx, args[0], attrs, id)
				if err != nil {
					return err
				}
				if markup == "" {
					return fmt.Errorf("svg %q not found", args[0])
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), markup)
				return err
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "id attribute")
	return cmd
}

// `verbena render url ID|REF [SIZE]`
func renderURLCmd(configPath *string) *cobra.Command {
	var path bool
	cmd := &cobra.Command{
		Use:   "url ID|REF [SIZE]",
		Short: "Print the public URL, or with --path the file path, of an attachment or upload",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				var (
					out string
					err error
				)
				if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
					out, err = attachmentLocation(ctx, a, id, args[1:], path)
				} else if path {
					out, err = a.helpers.MediaPath(args[0])
				} else {
					out, err = a.helpers.MediaURL(args[0])
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&path, "path", false, "print the filesystem path instead of the URL")
	return cmd
}

func attachmentLocation(ctx context.Context, a *app, id int64, rest []string, path bool) (string, error) {
	size := attachments.FullSize
	if len(rest) > 0 {
		size = rest[0]
	}
	u, found, err := a.helpers.AttachmentURL(ctx, id, size)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("no attachment with id %d", id)
	}
	if path {
		return a.helpers.MediaPath(u)
	}
	return u, nil
}

// withApp opens the app for the duration of fn. Logs go to stderr so they do
// not mix with command output.
func withApp(cmd *cobra.Command, configPath string, fn func(context.Context, *app) error) error {
	a, err := openApp(configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
