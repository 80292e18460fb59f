package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/chatcal-api/internal/models"
	"github.com/noah-isme/chatcal-api/internal/reconcile"
	"github.com/noah-isme/chatcal-api/internal/service"
	"github.com/noah-isme/chatcal-api/internal/store"
	"github.com/noah-isme/chatcal-api/pkg/storage"
)

// ErrMutationRejected is returned after a malformed mutation result has been reported.
var ErrMutationRejected = errors.New("mutation result rejected")

type reconcileOptions struct {
	StorePath  string
	ResultPath string
	Write      bool
}

type reconcileReport struct {
	Message  string            `json:"message" yaml:"message"`
	Outcome  reconcile.Outcome `json:"outcome" yaml:"outcome"`
	Revision uint64            `json:"revision" yaml:"revision"`
	Anomaly  string            `json:"anomaly,omitempty" yaml:"anomaly,omitempty"`
	Written  bool              `json:"written" yaml:"written"`
	Events   []models.Event    `json:"events" yaml:"events"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	ro := &reconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Apply a mutation result to a snapshot file offline",
		Long: `Apply one interpreter mutation result to the events held in a snapshot file.

The store file may be a snapshot document or a bare JSON array of events. A
missing file starts from an empty list. The result is read from --result, or
from stdin when --result is "-".`,
		Example: `  chatcal reconcile --store data/events.json --result turn.json
  echo '{"message":"ok","action":"delete","event":{"title":"Lunch"}}' | chatcal reconcile --store data/events.json --result - --write`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, opts, ro)
		},
	}

	cmd.Flags().StringVar(&ro.StorePath, "store", "", "snapshot file holding the current events")
	cmd.Flags().StringVar(&ro.ResultPath, "result", "-", "mutation result JSON file, or - for stdin")
	cmd.Flags().BoolVar(&ro.Write, "write", false, "write the new revision back to the store file")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runReconcile(cmd *cobra.Command, opts *RootOptions, ro *reconcileOptions) error {
	logr := opts.cliLogger()

	fileRepo, err := openSnapshotFile(ro.StorePath)
	if err != nil {
		return err
	}
	result, err := readMutationResult(cmd.InOrStdin(), ro.ResultPath)
	if err != nil {
		return err
	}

	st := store.New(store.WithLogger(logr))
	snapshot, err := fileRepo.Load()
	switch {
	case errors.Is(err, storage.ErrNotExist):
	case err != nil:
		return fmt.Errorf("load store: %w", err)
	default:
		st.Load(snapshot)
	}

	chat := service.NewChatService(nil, st, nil, nil, nil, logr)
	resp, err := chat.ApplyResult(cmd.Context(), result)
	if err != nil {
		return err
	}

	report := reconcileReport{
		Message:  resp.Message,
		Outcome:  resp.Outcome,
		Revision: resp.Revision,
		Events:   st.Snapshot().Events,
	}
	if resp.Anomaly != nil {
		report.Anomaly = resp.Anomaly.Code
	}

	if ro.Write && resp.Anomaly == nil && resp.Outcome.Changed() {
		if err := fileRepo.Save(st.Snapshot()); err != nil {
			return fmt.Errorf("write store: %w", err)
		}
		report.Written = true
	}

	if err := writeOutput(cmd.OutOrStdout(), opts.Format, report); err != nil {
		return err
	}
	if resp.Anomaly != nil {
		return fmt.Errorf("%w: %s", ErrMutationRejected, resp.Anomaly.Detail)
	}
	return nil
}

func readMutationResult(stdin io.Reader, path string) (models.MutationResult, error) {
	var result models.MutationResult

	var r io.Reader
	if path == "" || path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return result, fmt.Errorf("open result: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return result, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}
