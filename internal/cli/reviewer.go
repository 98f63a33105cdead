package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/pipeline"
)

// FeedbackApplier applies review decisions to staged records.
type FeedbackApplier interface {
	Confirm(ctx context.Context, recordID string) (pipeline.ConfirmResult, error)
	Reject(ctx context.Context, recordID string, reason model.FeedbackReason) error
}

// ReviewStats counts the decisions made in one review session.
type ReviewStats struct {
	Confirmed int
	Rejected  int
	Skipped   int
}

// rejectReasons are offered in this order when rejecting.
var rejectReasons = []model.FeedbackReason{
	model.ReasonNotJobRelated,
	model.ReasonPromotional,
	model.ReasonDuplicate,
	model.ReasonWrongDetails,
	model.ReasonNotForMe,
	model.ReasonOther,
}

// Reviewer walks pending staging records on a plain terminal, asking the
// user to confirm, reject or skip each.
type Reviewer struct {
	writer   io.Writer
	reader   *LineReader
	feedback FeedbackApplier
}

// NewReviewer creates a reviewer reading answers from r and writing to w.
func NewReviewer(r io.Reader, w io.Writer, feedback FeedbackApplier) *Reviewer {
	return &Reviewer{writer: w, reader: NewLineReader(r), feedback: feedback}
}

// Review prompts for every record. It stops early on quit, end of input or
// cancellation and returns the decisions made so far.
func (rv *Reviewer) Review(ctx context.Context, records []model.StagingRecord) (ReviewStats, error) {
	var stats ReviewStats
	for i, record := range records {
		title := fmt.Sprintf("Record %d of %d", i+1, len(records))
		rv.printf("%s\n", RenderBox(title, FormatStagingRecord(record)))
		rv.printf("  [C] Confirm  [R] Reject  [S] Skip  [Q] Quit\n")

		choice, err := rv.choose(ctx, "Choice", []string{"c", "r", "s", "q"})
		if err != nil {
			return stats, endOfInput(err)
		}

		switch choice {
		case "c":
			res, err := rv.feedback.Confirm(ctx, record.ID)
			if err != nil {
				return stats, fmt.Errorf("failed to confirm %s: %w", record.ID, err)
			}
			stats.Confirmed++
			verb := "Tracking"
			if res.Updated {
				verb = "Updated"
			}
			rv.printf("%s\n\n", FormatSuccess(fmt.Sprintf("%s %s (%s)", verb, res.Application.CompanyName, res.Application.Status)))
		case "r":
			reason, err := rv.reason(ctx)
			if err != nil {
				return stats, endOfInput(err)
			}
			if err := rv.feedback.Reject(ctx, record.ID, reason); err != nil {
				return stats, fmt.Errorf("failed to reject %s: %w", record.ID, err)
			}
			stats.Rejected++
			rv.printf("%s\n\n", FormatInfo("Rejected: "+string(reason)))
		case "s":
			stats.Skipped++
		case "q":
			return stats, nil
		}
	}
	return stats, nil
}

func (rv *Reviewer) reason(ctx context.Context) (model.FeedbackReason, error) {
	valid := make([]string, len(rejectReasons))
	for i, r := range rejectReasons {
		valid[i] = fmt.Sprint(i + 1)
		rv.printf("  [%d] %s\n", i+1, strings.ReplaceAll(string(r), "_", " "))
	}
	choice, err := rv.choose(ctx, "Reason", valid)
	if err != nil {
		return "", err
	}
	n, _ := strconv.Atoi(choice)
	return rejectReasons[n-1], nil
}

// choose prompts until the answer is one of valid.
func (rv *Reviewer) choose(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		rv.printf("%s", FormatPrompt(prompt))
		answer, err := rv.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, v := range valid {
			if answer == v {
				return answer, nil
			}
		}
		rv.printf("%s\n", FormatWarning(fmt.Sprintf("Please enter one of: %s", strings.Join(valid, ", "))))
	}
}

func (rv *Reviewer) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(rv.writer, format, args...); err != nil {
		slog.Warn("Failed to write review output", "error", err)
	}
}

// endOfInput treats a closed input as the user quitting.
func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
