package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

func main() {
	// Load environment variables from .env file if available
	_ = godotenv.Load()

	rootCmd := NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.OutOrStderr(), err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates failures worth retrying from bad input.
func exitCode(err error) int {
	switch gwerrors.CodeOf(err) {
	case gwerrors.ErrCodeRPC, gwerrors.ErrCodeNetwork, gwerrors.ErrCodeTimeout, gwerrors.ErrCodeUpstream:
		return 3
	case gwerrors.ErrCodeConfig, gwerrors.ErrCodeValidation, gwerrors.ErrCodeEncoding,
		gwerrors.ErrCodeSizeMismatch, gwerrors.ErrCodeInvalidRecoveryID:
		return 2
	default:
		return 1
	}
}
