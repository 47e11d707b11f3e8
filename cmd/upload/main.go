package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mediadrop/internal/cloudinary"
	"mediadrop/internal/config"
	applog "mediadrop/internal/log"
)

func main() {
	loadEnv(os.Stderr)
	applog.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "upload <file_path> [folder] [public_id]",
		Short: "Upload a file to Cloudinary and print its secure URL",
		Example: `  upload photo.jpg
  upload photo.jpg my-folder
  upload photo.jpg my-folder custom-name`,
		Args:          usageArgs(cobra.RangeArgs(1, 3)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, publicID := "uploads", ""
			if len(args) > 1 {
				folder = args[1]
			}
			if len(args) > 2 {
				publicID = args[2]
			}

			err := run(cmd.Context(), cmd.OutOrStdout(), args[0], folder, publicID, timeout)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "timeout for the upload request")

	return cmd
}

// usageArgs prints the error and usage when the argument count is wrong,
// since errors and usage are otherwise silenced.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n%s", err, cmd.UsageString())
			return err
		}
		return nil
	}
}

func loadEnv(w io.Writer, filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "Warning: .env file could not be loaded: %v\n", err)
	}
}

func run(ctx context.Context, out io.Writer, path, folder, publicID string, timeout time.Duration) error {
	creds, err := config.LoadCredentials()
	if err != nil {
		var missing *config.MissingCredentialsError
		if errors.As(err, &missing) {
			return fmt.Errorf("%w (set these environment variables first)", err)
		}
		return err
	}

	var opts []cloudinary.Option
	if base := os.Getenv("CLOUDINARY_API_BASE"); base != "" {
		opts = append(opts, cloudinary.WithBaseURL(base))
	}
	opts = append(opts, cloudinary.WithTimeout(timeout))

	url, err := cloudinary.NewClient(creds, opts...).Upload(ctx, path, folder, publicID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, url)
	return nil
}
