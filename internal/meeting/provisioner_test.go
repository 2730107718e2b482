package meeting

import (
	"context"
	"strings"
	"testing"

	"sparks-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvisionerLinkFormat(t *testing.T) {
	p := NewLocalProvisioner("http://localhost:3001/")

	link, eventID, err := p.ProvisionLink(context.Background(), &models.TherapySession{})
	require.NoError(t, err)
	assert.Empty(t, eventID)

	assert.True(t, strings.HasPrefix(link, "http://localhost:3001/meet/"), link)
	_, err = uuid.Parse(strings.TrimPrefix(link, "http://localhost:3001/meet/"))
	assert.NoError(t, err)
}

func TestLocalProvisionerLinksAreUnique(t *testing.T) {
	p := NewLocalProvisioner("http://localhost:3001")

	a, _, err := p.ProvisionLink(context.Background(), &models.TherapySession{})
	require.NoError(t, err)
	b, _, err := p.ProvisionLink(context.Background(), &models.TherapySession{})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
