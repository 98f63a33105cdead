package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/krishhsuri/Orbit/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{name: "valid context", ctx: context.Background()},
		{name: "nil context", ctx: nil, wantErr: true},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStagingRecord(t *testing.T) {
	valid := func() *model.StagingRecord {
		return &model.StagingRecord{
			UserID:     "u1",
			SourceID:   "m1",
			Category:   model.CategoryInterviewInvite,
			Origin:     model.OriginLocal,
			Status:     model.StagingPending,
			Confidence: 0.8,
		}
	}

	tests := []struct {
		mutate  func(*model.StagingRecord)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*model.StagingRecord) {}},
		{name: "missing user", mutate: func(r *model.StagingRecord) { r.UserID = " " }, wantErr: ErrInvalidStagingRecord},
		{name: "missing source", mutate: func(r *model.StagingRecord) { r.SourceID = "" }, wantErr: ErrInvalidStagingRecord},
		{name: "missing category", mutate: func(r *model.StagingRecord) { r.Category = "" }, wantErr: ErrInvalidStagingRecord},
		{name: "confidence above one", mutate: func(r *model.StagingRecord) { r.Confidence = 1.2 }, wantErr: ErrInvalidStagingRecord},
		{name: "unknown status", mutate: func(r *model.StagingRecord) { r.Status = "archived" }, wantErr: ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := validateStagingRecord(r)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := validateStagingRecord(nil); !errors.Is(err, ErrNilParameter) {
		t.Errorf("nil record error = %v", err)
	}
}

func TestValidateApplication(t *testing.T) {
	tests := []struct {
		app     *model.TrackedApplication
		wantErr error
		name    string
	}{
		{
			name: "valid",
			app:  &model.TrackedApplication{UserID: "u1", CompanyName: "Acme", RoleTitle: "SWE", Status: model.StatusApplied},
		},
		{
			name:    "missing company",
			app:     &model.TrackedApplication{UserID: "u1", RoleTitle: "SWE", Status: model.StatusApplied},
			wantErr: ErrInvalidApplication,
		},
		{
			name:    "unknown status",
			app:     &model.TrackedApplication{UserID: "u1", CompanyName: "Acme", RoleTitle: "SWE", Status: "hired"},
			wantErr: ErrInvalidStatus,
		},
		{name: "nil", wantErr: ErrNilParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateApplication(tt.app)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTrainingExample(t *testing.T) {
	if err := validateTrainingExample(&model.TrainingExample{Subject: "hi", Label: model.LabelPositive}); err != nil {
		t.Errorf("valid example rejected: %v", err)
	}
	if err := validateTrainingExample(&model.TrainingExample{Subject: "hi", Label: "maybe"}); !errors.Is(err, ErrInvalidTrainingExample) {
		t.Errorf("bad label error = %v", err)
	}
	if err := validateTrainingExample(&model.TrainingExample{Label: model.LabelNegative}); !errors.Is(err, ErrInvalidTrainingExample) {
		t.Errorf("empty text error = %v", err)
	}
}
