// AngelaMos | 2026
// keygen.go

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/carterperez-dev/moderation-admin/internal/auth"
)

var cmdKeygen = &cli.Command{
	Name:  "keygen",
	Usage: "generate the ES256 key pair used to sign access tokens",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "private", Value: "keys/private.pem"},
		&cli.PathFlag{Name: "public", Value: "keys/public.pem"},
		&cli.BoolFlag{Name: "force", Usage: "overwrite existing keys"},
	},
	Action: func(cctx *cli.Context) error {
		privatePath, publicPath := cctx.Path("private"), cctx.Path("public")

		if !cctx.Bool("force") {
			for _, p := range []string{privatePath, publicPath} {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("%s exists; pass --force to replace it", p)
				}
			}
		}

		privatePEM, publicPEM, err := auth.GeneratePrivateKeyPEM()
		if err != nil {
			return err
		}

		if err := writeKey(privatePath, privatePEM, 0o600); err != nil {
			return err
		}
		if err := writeKey(publicPath, publicPEM, 0o644); err != nil {
			return err
		}

		fmt.Printf("wrote %s and %s\n", privatePath, publicPath)
		return nil
	},
}

func writeKey(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
