package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/CTAG07/Verbena/pkg/attachments"
	"github.com/spf13/cobra"
)

// `verbena attachments`
func attachmentsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachments",
		Aliases: []string{"att"},
		Short:   "Manage attachment records",
	}
	cmd.AddCommand(attachmentsAddCmd(configPath))
	cmd.AddCommand(attachmentsListCmd(configPath))
	cmd.AddCommand(attachmentsRemoveCmd(configPath))
	cmd.AddCommand(attachmentsLookupCmd(configPath))
	cmd.AddCommand(attachmentsExportCmd(configPath))
	cmd.AddCommand(attachmentsImportCmd(configPath))
	return cmd
}

// `verbena attachments add FILE`
func attachmentsAddCmd(configPath *string) *cobra.Command {
	var (
		att   attachments.Attachment
		sizes []string
	)
	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Record an uploaded file and its pre-generated sizes",
		Example: "  verbena attachments add 2024/05/harbour.jpg --mime image/jpeg --width 2400 --height 1600 \\\n" +
			"    --alt \"Boats in the harbour\" --size medium=2024/05/harbour-300x200.jpg:300x200",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			att.File = args[0]
			for _, s := range sizes {
				size, err := parseSizeFlag(s)
				if err != nil {
					return err
				}
				att.Sizes = append(att.Sizes, size)
			}
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				id, err := a.store.Insert(ctx, att)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&att.ID, "id", 0, "use this ID instead of the next free one")
	cmd.Flags().StringVar(&att.MimeType, "mime", "", "mime type, e.g. image/jpeg")
	cmd.Flags().IntVar(&att.Width, "width", 0, "width of the original in pixels")
	cmd.Flags().IntVar(&att.Height, "height", 0, "height of the original in pixels")
	cmd.Flags().StringVar(&att.Alt, "alt", "", "alternative text")
	cmd.Flags().StringVar(&att.Title, "title", "", "title")
	cmd.Flags().StringArrayVar(&sizes, "size", nil, "size variant as name=file:WIDTHxHEIGHT (repeatable)")
	_ = cmd.MarkFlagRequired("mime")
	return cmd
}

// parseSizeFlag parses name=file:WIDTHxHEIGHT. The dimensions are optional.
func parseSizeFlag(s string) (attachments.Size, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || name == "" || rest == "" {
		return attachments.Size{}, fmt.Errorf("invalid size %q, want name=file:WIDTHxHEIGHT", s)
	}
	size := attachments.Size{Name: name, File: rest}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return size, nil
	}
	w, h, ok := strings.Cut(rest[i+1:], "x")
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if !ok || errW != nil || errH != nil {
		return attachments.Size{}, fmt.Errorf("invalid dimensions in size %q", s)
	}
	size.File, size.Width, size.Height = rest[:i], width, height
	return size, nil
}

// `verbena attachments list`
func attachmentsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List attachment records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				all, err := a.store.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tFILE\tMIME\tSIZE\tVARIANTS")
				for _, att := range all {
					names := make([]string, 0, len(att.Sizes))
					for _, s := range att.Sizes {
						names = append(names, s.Name)
					}
					_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%s\n",
						att.ID, att.File, att.MimeType, att.Width, att.Height, strings.Join(names, ","))
				}
				return tw.Flush()
			})
		},
	}
}

// `verbena attachments rm ID`
func attachmentsRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove an attachment record; files on disk are left alone",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid attachment id %q", args[0])
			}
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				return a.store.Delete(ctx, id)
			})
		},
	}
}

// `verbena attachments lookup URL`
func attachmentsLookupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup URL",
		Short: "Print the ID of the attachment an upload URL or path belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				id, found, err := a.helpers.AttachmentID(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no attachment owns %q", args[0])
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
}

// `verbena attachments export [FILE]`
func attachmentsExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write all attachment records as a JSON manifest, to stdout by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				if len(args) == 0 {
					return a.store.Export(ctx, cmd.OutOrStdout())
				}
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err = a.store.Export(ctx, f); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
}

// `verbena attachments import FILE`
func attachmentsImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Insert the attachment records of a JSON manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)
			return withApp(cmd, *configPath, func(ctx context.Context, a *app) error {
				n, err := a.store.Import(ctx, f)
				if err != nil {
					return fmt.Errorf("imported %d attachments before failing: %w", n, err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d attachments\n", n)
				return err
			})
		},
	}
}
