package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/edirooss/gasket-console/internal/lbclient"
)

// printErrChain writes one line per layer of err: index, type and message.
// Load balancer errors are tagged with their class.
func printErrChain(w io.Writer, err error) {
	if err == nil {
		fmt.Fprintln(w, "<nil>")
		return
	}
	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "[%d] %T: %v%s\n", i, e, e, classOf(e))
	}
}

// printErrChainDebug is printErrChain plus the fields of every layer. The
// lbclient error types print as named fields; anything else is spewed.
func printErrChainDebug(w io.Writer, err error) {
	dump := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}

	for i, e := 0, err; e != nil; i, e = i+1, errors.Unwrap(e) {
		fmt.Fprintf(w, "[%d] %T%s\n", i, e, classOf(e))
		fmt.Fprintf(w, "   Error(): %v\n", e)

		switch le := e.(type) {
		case *lbclient.RejectionError:
			fmt.Fprintf(w, "   Op:      %s\n", le.Op)
			fmt.Fprintf(w, "   Status:  %d\n", le.Status)
			fmt.Fprintf(w, "   Message: %s\n", le.Message)
		case *lbclient.TransportError:
			fmt.Fprintf(w, "   Op:      %s\n", le.Op)
			fmt.Fprintf(w, "   Cause:   %T: %v\n", le.Err, le.Err)
		default:
			for _, line := range strings.Split(strings.TrimRight(dump.Sdump(e), "\n"), "\n") {
				fmt.Fprintf(w, "   %s\n", line)
			}
		}
	}
}

func classOf(e error) string {
	switch e.(type) {
	case *lbclient.RejectionError:
		if lbclient.IsNotFound(e) {
			return " (not found)"
		}
		return " (rejection)"
	case *lbclient.TransportError:
		return " (transport)"
	}
	return ""
}
