package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/pipeline"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Explain how one message moves through the cascade",
		Long: `Run a single message through the local cascade and print every
stage verdict. Nothing is stored.

  orbit classify --from "talent@acme.com" --subject "Interview invitation"`,
		RunE: runClassify,
	}

	cmd.Flags().String("from", "", "sender, as an address or \"Name <address>\"")
	cmd.Flags().String("subject", "", "message subject")
	cmd.Flags().String("snippet", "", "message snippet or body")
	cmd.Flags().Bool("enrich", false, "also run LLM extraction when the result is weak")
	cmd.Flags().Bool("decide", false, "also ask the LLM for a commit decision")
	cmd.Flags().Bool("match", false, "also match against tracked applications")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	from, _ := cmd.Flags().GetString("from")
	subject, _ := cmd.Flags().GetString("subject")
	snippet, _ := cmd.Flags().GetString("snippet")
	enrich, _ := cmd.Flags().GetBool("enrich")
	decide, _ := cmd.Flags().GetBool("decide")
	match, _ := cmd.Flags().GetBool("match")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	name, addr := model.ParseSender(from)
	email := model.RawEmail{
		SourceID:    "classify",
		Subject:     subject,
		Snippet:     snippet,
		FromAddress: addr,
		FromName:    name,
	}

	res := a.orch.QuickParse(email, settings.User.Email)
	if enrich {
		if err := requireLLM(a); err != nil {
			return err
		}
		res = a.orch.Enrich(ctx, email, res)
	}

	var b strings.Builder
	if res.Learned.Ready() {
		fmt.Fprintf(&b, "Learned:    %s (%.2f)\n", res.Learned.Label, res.Learned.Confidence)
	} else {
		fmt.Fprintf(&b, "Learned:    %s\n", cli.SubtleStyle.Render("not trained"))
	}
	if res.Verdict.Reason != "" {
		fmt.Fprintf(&b, "Filter:     admitted=%t reason=%s %s\n", res.Verdict.Admitted, res.Verdict.Reason, res.Verdict.Matched)
	}
	if res.Stage == pipeline.StageClassifier || res.Stage == pipeline.StageLLM {
		fmt.Fprintf(&b, "Keywords:   score=%d detected=%s\n", res.Signals.KeywordScore, res.Signals.DetectedType)
	}
	fmt.Fprintf(&b, "Stage:      %s\n", res.Stage)
	fmt.Fprintf(&b, "Category:   %s\n", res.Result.Category)
	fmt.Fprintf(&b, "Confidence: %.2f (%s)\n", res.Result.Confidence, res.Result.Origin)
	fmt.Fprintf(&b, "Company:    %s\n", res.Result.Entities.Company)
	fmt.Fprintf(&b, "Role:       %s\n", res.Result.Entities.Role)
	if res.Staged() {
		fmt.Fprintf(&b, "Verdict:    %s", cli.SuccessStyle.Render("would be staged"))
	} else {
		fmt.Fprintf(&b, "Verdict:    %s", cli.SubtleStyle.Render("would be filtered"))
	}
	writeln(cmd.OutOrStdout(), cli.RenderBox("Classification", b.String()))

	if match {
		apps, err := a.store.ListApplications(ctx, settings.User.ID)
		if err != nil {
			return err
		}
		m := a.matcher.Match(email, apps, &res.Signals)
		if m.Found() {
			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Matches application %s via %q (%.2f)", m.ApplicationID, m.Candidate, m.Confidence)))
		} else {
			writeln(cmd.OutOrStdout(), cli.FormatInfo("No tracked application matches."))
		}
	}

	if decide {
		if err := requireLLM(a); err != nil {
			return err
		}
		d := a.orch.ProcessWithLLM(ctx, email)
		msg := fmt.Sprintf("Decision: %s company=%q role=%q status=%s reason=%q", d.Action, d.Company, d.Role, d.Status, d.Reason)
		if d.Degraded {
			return common.NewUserError("the LLM could not decide: "+d.Reason, common.ErrLLMUnavailable)
		}
		writeln(cmd.OutOrStdout(), cli.FormatInfo(msg))
	}
	return nil
}
