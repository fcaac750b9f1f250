package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soderasen-au/go-common/util"

	"github.com/soderasen-au/go-sheetmerge/artifact"
	"github.com/soderasen-au/go-sheetmerge/config"
)

const ENV_CONFIG = "SHEETMERGE_CONFIG"

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s enc <artifact_key>    Sign a download link token for a stored report\n", prog)
	fmt.Fprintf(os.Stderr, "  %s dec <token>           Decode and verify a download link token\n", prog)
	fmt.Fprintf(os.Stderr, "The signing key is read from the config file named by %s.\n", ENV_CONFIG)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cfg, res := config.Load(os.Getenv(ENV_CONFIG))
	if res != nil {
		fatal("%v", res)
	}
	signer, res := artifact.NewSigner(cfg.Artifacts.SigningKey, cfg.Artifacts.LinkTTL())
	if res != nil {
		fatal("%v", res)
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "enc":
		token, res := signer.Sign(os.Args[2])
		if res != nil {
			fatal("%v", res)
		}
		link := strings.TrimSuffix(cfg.Artifacts.BaseURL, "/") + "/api/artifacts/" + token
		fmt.Printf("\nToken:\n%s\n\nLink:\n%s\n\n", token, link)

	case "dec":
		claim, res := signer.Verify(os.Args[2])
		if res != nil {
			fatal("failed to verify token: %v", res)
		}
		fmt.Printf("\nPayload:\n%s\n\nExpires:\n%s\n\n", util.Jsonify(claim), claim.ExpiresAt.Time)

	default:
		fatal("invalid command '%s': must be 'enc' or 'dec'", cmd)
	}
}
