package schedule

import (
	"testing"

	"github.com/quietday/quietday/pkg/feed"
	"github.com/stretchr/testify/assert"
)

func TestComposeStatus(t *testing.T) {
	t.Run("game here today", func(t *testing.T) {
		events := []feed.Event{
			{Date: "2015-04-10", Time: "7:15 PM", IsHome: true, IsHere: true, Opponent: "Dodgers"},
		}

		status := ComposeStatus(events, "2015-04-10", "Giants")

		assert.True(t, status.IsHome)
		assert.Equal(t, "Giants play Dodgers at 7:15 PM", status.Today)
		assert.Equal(t, "No peace and quiet until Saturday, 2015-04-11", status.Outlook)
	})

	t.Run("no game today, one coming up", func(t *testing.T) {
		events := []feed.Event{
			{Date: "2015-04-13", Time: "7:15 PM", IsHome: true, IsHere: true, Opponent: "Rockies"},
		}

		status := ComposeStatus(events, "2015-04-10", "Giants")

		assert.False(t, status.IsHome)
		assert.Equal(t, "No home game today!", status.Today)
		assert.Equal(t, "All quiet until Monday, 2015-04-13, when Giants play Rockies at 7:15 PM", status.Outlook)
	})

	t.Run("no more games at all", func(t *testing.T) {
		status := ComposeStatus(nil, "2015-10-20", "Giants")

		assert.False(t, status.IsHome)
		assert.Equal(t, "No more home games!", status.Today)
		assert.Equal(t, "(...until next year...)", status.Outlook)
	})

	t.Run("away games do not count as home games", func(t *testing.T) {
		events := []feed.Event{
			{Date: "2015-04-10", Time: "7:10 PM", IsHome: false, IsHere: false, Opponent: "Dodgers", Location: "Dodger Stadium"},
		}

		status := ComposeStatus(events, "2015-04-10", "Giants")

		assert.False(t, status.IsHome)
		assert.Equal(t, "No more home games!", status.Today)
	})

	t.Run("outlook walks over a home stand", func(t *testing.T) {
		events := []feed.Event{
			{Date: "2015-04-10", Time: "7:15 PM", IsHome: true, IsHere: true, Opponent: "Dodgers"},
			{Date: "2015-04-11", Time: "1:05 PM", IsHome: true, IsHere: true, Opponent: "Dodgers"},
		}

		status := ComposeStatus(events, "2015-04-10", "Giants")

		assert.True(t, status.IsHome)
		assert.Equal(t, "No peace and quiet until Sunday, 2015-04-12", status.Outlook)
	})
}
