package flows

import (
	"context"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// RenderHome reconciles the user's request records with the IGA backend and
// publishes the refreshed list to their App Home. A record-store failure
// propagates; everything else degrades inside the sweep.
func (f *Flow) RenderHome(ctx context.Context, userID string) error {
	records, err := f.sweep.Reconcile(ctx, userID)
	if err != nil {
		return err
	}

	summaries := make([]models.RequestSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, models.RequestSummary{
			RequestID:        record.ID,
			CatalogItemLabel: record.CatalogItemLabel,
			Status:           record.Status,
			RequestedAt:      record.RequestedAt,
		})
	}

	return f.views.PublishHome(ctx, userID, BuildHomeView(summaries))
}
