package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

const tabTitle = "Applications"

// Header is the column header of the application table.
var Header = []any{"Company", "Role", "Status", "Applied", "Last Update", "Days Silent", "Source", "Job URL"}

// spreadsheetAPI is the slice of the Sheets API the writer uses.
type spreadsheetAPI interface {
	Open(ctx context.Context, id string) error
	Create(ctx context.Context, title, timeZone string) (id, url string, err error)
	Clear(ctx context.Context, id string) error
	Update(ctx context.Context, id, cell string, rows [][]any) error
	Format(ctx context.Context, id string, requests []*sheets.Request) error
}

// Writer exports applications to one spreadsheet tab, replacing its contents.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	now    func() time.Time
	config Config
}

// NewWriter creates a Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets config: %w", err)
	}
	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newWriter(&googleAPI{srv: srv}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{api: api, config: config, logger: logger, now: time.Now}
}

// Export writes apps to the configured spreadsheet, creating it when no id
// is configured, and returns the spreadsheet id.
func (w *Writer) Export(ctx context.Context, apps []model.TrackedApplication) (string, error) {
	w.logger.Info("Starting application export", "applications", len(apps))

	retryOpts := service.RetryOptions{
		MaxAttempts:  max(w.config.RetryAttempts, 1),
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", err
	}
	if err := common.WithRetry(ctx, func(ctx context.Context) error {
		return w.api.Clear(ctx, spreadsheetID)
	}, retryOpts); err != nil {
		return "", fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := Rows(apps, w.now())
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		cell := fmt.Sprintf("%s!A%d", tabTitle, i+1)
		err := common.WithRetry(ctx, func(ctx context.Context) error {
			return w.api.Update(ctx, spreadsheetID, cell, values[i:end])
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}
		w.logger.Debug("Wrote batch", "start_row", i+1, "rows", end-i)
	}

	if w.config.EnableFormatting {
		if err := w.api.Format(ctx, spreadsheetID, formatRequests(len(values))); err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("Application export completed", "spreadsheet_id", spreadsheetID, "rows_written", len(values))
	return spreadsheetID, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if err := w.api.Open(ctx, w.config.SpreadsheetID); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	id, url, err := w.api.Create(ctx, w.config.SpreadsheetName, w.config.TimeZone)
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}
	w.logger.Info("Created new spreadsheet", "id", id, "url", url)
	return id, nil
}

// Rows lays out the export: a title, a per-status summary, then one row per
// application, most recently applied first.
func Rows(apps []model.TrackedApplication, now time.Time) [][]any {
	sorted := make([]model.TrackedApplication, len(apps))
	copy(sorted, apps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AppliedDate.After(sorted[j].AppliedDate)
	})

	counts := make(map[model.ApplicationStatus]int)
	for _, app := range sorted {
		counts[app.Status]++
	}

	values := make([][]any, 0, len(sorted)+len(model.ApplicationStatuses)+8)
	values = append(values,
		[]any{"Job Applications", "Exported " + now.Format("Jan 2, 2006")},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Applications", len(sorted)},
	)
	for _, status := range model.ApplicationStatuses {
		if counts[status] > 0 {
			values = append(values, []any{string(status), counts[status]})
		}
	}
	values = append(values, []any{}, Header)

	for _, app := range sorted {
		days := int(now.Sub(app.StatusUpdatedAt).Hours() / 24)
		values = append(values, []any{
			app.CompanyName,
			app.RoleTitle,
			string(app.Status),
			app.AppliedDate.Format("2006-01-02"),
			app.StatusUpdatedAt.Format("2006-01-02"),
			max(days, 0),
			app.Source,
			app.JobURL,
		})
	}
	return values
}

func formatRequests(totalRows int) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: 2},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true, FontSize: 14}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{StartRowIndex: 2, EndRowIndex: int64(totalRows), StartColumnIndex: 0, EndColumnIndex: 1},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{Dimension: "COLUMNS", StartIndex: 0, EndIndex: int64(len(Header))},
			},
		},
	}
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		tokenSource = client.TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"})
	}

	return sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
}

// googleAPI adapts *sheets.Service to spreadsheetAPI.
type googleAPI struct {
	srv     *sheets.Service
	sheetID int64
}

func (g *googleAPI) Open(ctx context.Context, id string) error {
	ss, err := g.srv.Spreadsheets.Get(id).Context(ctx).Do()
	if err != nil {
		return err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == tabTitle {
			g.sheetID = s.Properties.SheetId
			return nil
		}
	}
	resp, err := g.srv.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tabTitle}}}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add %s tab: %w", tabTitle, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		g.sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	return nil
}

func (g *googleAPI) Create(ctx context.Context, title, timeZone string) (string, string, error) {
	created, err := g.srv.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title, TimeZone: timeZone},
		Sheets:     []*sheets.Sheet{{Properties: &sheets.SheetProperties{Title: tabTitle}}},
	}).Context(ctx).Do()
	if err != nil {
		return "", "", err
	}
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		g.sheetID = created.Sheets[0].Properties.SheetId
	}
	return created.SpreadsheetId, created.SpreadsheetUrl, nil
}

func (g *googleAPI) Clear(ctx context.Context, id string) error {
	_, err := g.srv.Spreadsheets.Values.Clear(id, tabTitle+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, id, cell string, rows [][]any) error {
	_, err := g.srv.Spreadsheets.Values.Update(id, cell, &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (g *googleAPI) Format(ctx context.Context, id string, requests []*sheets.Request) error {
	for _, r := range requests {
		switch {
		case r.RepeatCell != nil:
			r.RepeatCell.Range.SheetId = g.sheetID
		case r.AutoResizeDimensions != nil:
			r.AutoResizeDimensions.Dimensions.SheetId = g.sheetID
		}
	}
	_, err := g.srv.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return err
}
