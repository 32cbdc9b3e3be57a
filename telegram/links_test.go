package telegram

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/nguyensondev/epass-web/internal/errors"
)

func restoreClock(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { NowTimeFunc = time.Now })
}

func TestPendingLinksCreateAndConsume(t *testing.T) {
	links := NewPendingLinks()

	code, err := links.Create("42", "0912345678")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	link, err := links.Consume(code)
	require.NoError(t, err)
	require.Equal(t, "42", link.ChatID)
	require.Equal(t, "0912345678", link.PhoneNumber)
}

func TestPendingLinksAreSingleUse(t *testing.T) {
	links := NewPendingLinks()

	code, err := links.Create("42", "")
	require.NoError(t, err)

	_, err = links.Consume(code)
	require.NoError(t, err)
	_, err = links.Consume(code)
	require.ErrorIs(t, err, apperrors.ErrLinkCodeNotFound)
}

func TestPendingLinksUnknownCode(t *testing.T) {
	links := NewPendingLinks()
	_, err := links.Consume("123456")
	require.ErrorIs(t, err, apperrors.ErrLinkCodeNotFound)
}

func TestPendingLinksExpire(t *testing.T) {
	restoreClock(t)

	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return issued }

	links := NewPendingLinks()
	code, err := links.Create("42", "")
	require.NoError(t, err)

	NowTimeFunc = func() time.Time { return issued.Add(11 * time.Minute) }
	_, err = links.Consume(code)
	require.ErrorIs(t, err, apperrors.ErrLinkCodeNotFound)
}

func TestPendingLinksCleanup(t *testing.T) {
	restoreClock(t)

	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	NowTimeFunc = func() time.Time { return issued }

	links := NewPendingLinks()
	expired, err := links.Create("42", "")
	require.NoError(t, err)

	NowTimeFunc = func() time.Time { return issued.Add(5 * time.Minute) }
	fresh, err := links.Create("43", "")
	require.NoError(t, err)

	NowTimeFunc = func() time.Time { return issued.Add(12 * time.Minute) }
	links.Cleanup()

	_, err = links.Consume(expired)
	require.ErrorIs(t, err, apperrors.ErrLinkCodeNotFound)
	_, err = links.Consume(fresh)
	require.NoError(t, err)
}
