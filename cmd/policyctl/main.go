package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess        = 0 // Job completed
	ExitAnalysisFailed = 1 // The analysis job ended in a failure
	ExitError          = 2 // Configuration or runtime error
)

// AnalysisFailedError indicates that a job was started and reached a
// terminal failure: a server-side error record, a rejected upload, or an
// interrupted stream.
type AnalysisFailedError struct {
	Message string
}

func (e *AnalysisFailedError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var analysisErr *AnalysisFailedError
		if errors.As(err, &analysisErr) {
			os.Exit(ExitAnalysisFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
