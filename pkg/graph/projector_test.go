package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sttalk999/sttalk/pkg/models"
)

type recordingWriter struct {
	cypher []string
	params []map[string]any
	err    error
}

func (w *recordingWriter) Write(_ context.Context, cypher string, params map[string]any) error {
	w.cypher = append(w.cypher, cypher)
	w.params = append(w.params, params)
	return w.err
}

func TestProjector_UpsertsMatchEdge(t *testing.T) {
	writer := &recordingWriter{}
	projector := NewProjector(writer, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	match := models.Match{ID: "m1", EntityID: "e1", InvestorID: "i1", Status: models.MatchStatusFullReveal, InitiatedBy: models.InitiatorInvestor}

	require.NoError(t, projector.MatchStatusChanged(context.Background(), match, models.MatchStatusTeaserRevealed))

	require.Len(t, writer.params, 1)
	assert.Contains(t, writer.cypher[0], "MERGE (e)-[m:MATCHED")
	assert.Equal(t, "FullReveal", writer.params[0]["status"])
	assert.Equal(t, "investor", writer.params[0]["initiated_by"])
	assert.Equal(t, "e1", writer.params[0]["entity_id"])
}

func TestProjector_ReturnsWriteErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("bolt: connection closed")}
	projector := NewProjector(writer, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
	assert.Error(t, projector.MatchCreated(context.Background(), models.Match{ID: "m1"}))
}
