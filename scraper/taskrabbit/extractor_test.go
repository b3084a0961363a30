package taskrabbit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"taskrabbit-scraper/models"
)

func ptr[T any](v T) *T { return &v }

const fullCard = `<div data-testid="tasker-card-mobile">
  <div>
    <button class="MuiButton-root TRTextButtonPrimary-Root mui-1pbxn54">Jane D.</button>
    <span class="tasker-elite-badge">Elite Tasker</span>
  </div>
  <div class="mui-loubxv">$45.50/hr</div>
  <div>5.0 (1,204 reviews)</div>
  <div>312 Plumbing tasks</div>
  <div>1,450 Handyman tasks overall</div>
  <div>2 Hour Minimum</div>
  <p>How I can help:</p>
  <p>Licensed plumber, 10 years of experience.</p>
</div>`

func TestExtractFullCard(t *testing.T) {
	got, err := NewExtractor("Plumbing").Extract(fullCard)
	require.NoError(t, err)

	want := models.Tasker{
		Name:              "Jane D.",
		HourlyRate:        ptr(45.50),
		ReviewRating:      ptr(5.0),
		ReviewCount:       ptr(1204),
		CategoryTaskCount: ptr(312),
		OverallTaskCount:  ptr(1450),
		TwoHourMinimum:    true,
		EliteStatus:       true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNameOnlyCard(t *testing.T) {
	got, err := NewExtractor("Plumbing").Extract(`<div><span>Sam K.</span></div>`)
	require.NoError(t, err)

	if diff := cmp.Diff(models.Tasker{Name: "Sam K."}, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAccentedNames(t *testing.T) {
	tests := []struct {
		card string
		want models.Tasker
	}{
		{`<div><h3>José M.</h3><div>$45/hr</div></div>`, models.Tasker{Name: "José M.", HourlyRate: ptr(45.0)}},
		{`<div><span>Zoë K.</span></div>`, models.Tasker{Name: "Zoë K."}},
	}
	for _, tt := range tests {
		got, err := NewExtractor("Plumbing").Extract(tt.card)
		require.NoError(t, err, tt.card)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Extract(%s) mismatch (-want +got):\n%s", tt.card, diff)
		}
	}
}

func TestExtractMissingName(t *testing.T) {
	cards := []string{
		`<div><h3>  </h3><div>$40/hr</div><div>4.8 (3 reviews)</div></div>`,
		`<div></div>`,
		`<div><button class="mui-1pbxn54">View Profile</button></div>`,
	}
	for _, card := range cards {
		_, err := NewExtractor("Plumbing").Extract(card)
		require.ErrorIs(t, err, ErrMissingName, card)
	}
}

func TestExtractNameSelectorPriority(t *testing.T) {
	card := `<div>
		<h3>How I can help:</h3>
		<span class="mui-5xjf89">Ana P.</span>
		<h3>Bob R.</h3>
	</div>`
	got, err := NewExtractor("Plumbing").Extract(card)
	require.NoError(t, err)
	require.Equal(t, "Ana P.", got.Name)
}

func TestExtractCategoryAndOverallCounts(t *testing.T) {
	card := `<div><h3>Lee W.</h3>
		<span>12 Furniture Assembly tasks</span>
		<span>150 Assembly tasks overall</span>
	</div>`
	got, err := NewExtractor("Furniture Assembly").Extract(card)
	require.NoError(t, err)

	require.Equal(t, ptr(12), got.CategoryTaskCount)
	require.Equal(t, ptr(150), got.OverallTaskCount)
}

func TestExtractCategoryCountIgnoresOverall(t *testing.T) {
	card := `<div><h3>Lee W.</h3><span>40 Plumbing tasks overall</span></div>`
	got, err := NewExtractor("Plumbing").Extract(card)
	require.NoError(t, err)

	require.Nil(t, got.CategoryTaskCount)
	require.Equal(t, ptr(40), got.OverallTaskCount)
}

func TestExtractOverallVariants(t *testing.T) {
	tests := map[string]int{
		"88 overall tasks":   88,
		"1,024 total tasks":  1024,
		"17 tasks completed": 17,
	}
	for text, want := range tests {
		got, err := NewExtractor("Plumbing").Extract(`<div><h3>Kim T.</h3><p>` + text + `</p></div>`)
		require.NoError(t, err)
		require.Equal(t, ptr(want), got.OverallTaskCount, text)
	}
}

func TestExtractRateFallbacks(t *testing.T) {
	tests := []struct {
		text string
		want *float64
	}{
		{"$38/hr", ptr(38.0)},
		{"$ 1,200.00 / hr", ptr(1200.0)},
		{"Starting at $52.35", ptr(52.35)},
		{"Rate on request", nil},
		{"$40", nil},
	}
	for _, tt := range tests {
		got, err := NewExtractor("Plumbing").Extract(`<div><h3>Kim T.</h3><p>` + tt.text + `</p></div>`)
		require.NoError(t, err)
		require.Equal(t, tt.want, got.HourlyRate, tt.text)
	}
}

func TestExtractReviewsAbsentTogether(t *testing.T) {
	got, err := NewExtractor("Plumbing").Extract(`<div><h3>Kim T.</h3><p>New Tasker</p></div>`)
	require.NoError(t, err)
	require.Nil(t, got.ReviewRating)
	require.Nil(t, got.ReviewCount)
}

func TestExtractBadges(t *testing.T) {
	tests := []struct {
		card    string
		twoHour bool
		elite   bool
	}{
		{`<div><h3>Kim T.</h3><p>2 hr minimum</p></div>`, true, false},
		{`<div><h3>Kim T.</h3><p>Minimum 2 hours</p></div>`, true, false},
		{`<div><h3>Kim T.</h3><span class="badge--elite"></span></div>`, false, true},
		{`<div><h3>Kim T.</h3><p>ELITE</p></div>`, false, true},
		{`<div><h3>Kim T.</h3><p>Celiteria 3 hour minimum</p></div>`, false, false},
	}
	for _, tt := range tests {
		got, err := NewExtractor("Plumbing").Extract(tt.card)
		require.NoError(t, err)
		require.Equal(t, tt.twoHour, got.TwoHourMinimum, tt.card)
		require.Equal(t, tt.elite, got.EliteStatus, tt.card)
	}
}

func TestExtractIgnoresScriptText(t *testing.T) {
	card := `<div><script>var x = "Elite";</script><h3>Kim T.</h3></div>`
	got, err := NewExtractor("Plumbing").Extract(card)
	require.NoError(t, err)
	require.False(t, got.EliteStatus)
}
