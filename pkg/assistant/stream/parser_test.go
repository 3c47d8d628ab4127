package stream

import (
	"testing"

	"library-ai-be/pkg/assistant/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		frame       string
		wantOutcome Outcome
		wantForward bool
		wantText    string
		wantChunks  int
	}{
		{
			name:        "content",
			frame:       `{"type":"content","data":"你好"}`,
			wantOutcome: OutcomeContent,
			wantForward: true,
			wantText:    "你好",
			wantChunks:  1,
		},
		{
			name:        "think is suppressed",
			frame:       `{"type":"think","data":"推理中"}`,
			wantOutcome: OutcomeThink,
		},
		{
			name:        "end is not relayed",
			frame:       `{"type":"end","data":""}`,
			wantOutcome: OutcomeEnd,
		},
		{
			name:        "malformed is relayed raw",
			frame:       `plain text`,
			wantOutcome: OutcomeMalformed,
			wantForward: true,
			wantText:    "plain text",
		},
		{
			name:        "missing type is malformed",
			frame:       `{"data":"x"}`,
			wantOutcome: OutcomeMalformed,
			wantForward: true,
			wantText:    `{"data":"x"}`,
		},
		{
			name:        "unknown type passes through",
			frame:       `{"type":"usage","data":{"tokens":3}}`,
			wantOutcome: OutcomeUnknown,
			wantForward: true,
		},
		{
			name:        "non string data kept literally",
			frame:       `{"type":"content","data":42}`,
			wantOutcome: OutcomeContent,
			wantForward: true,
			wantText:    "42",
			wantChunks:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewState()
			res := Parse(tt.frame, st)

			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantForward, res.Forward)
			if tt.wantForward {
				assert.Equal(t, tt.frame, res.Payload)
			}
			assert.Equal(t, tt.wantText, st.Text())
			assert.Equal(t, tt.wantChunks, st.Chunks())
		})
	}
}

func TestParse_ThinkSetsFlagOnly(t *testing.T) {
	st := NewState()
	Parse(`{"type":"think","data":"《不该出现》"}`, st)

	assert.True(t, st.SawThink())
	assert.Empty(t, st.Titles())
	assert.Empty(t, st.Text())
}

func TestParse_ChunkCounterOnlyCountsContent(t *testing.T) {
	st := NewState()
	frames := []string{
		`{"type":"content","data":"a"}`,
		`{"type":"think","data":"b"}`,
		`oops`,
		`{"type":"content","data":"c"}`,
		`{"type":"end"}`,
	}
	for _, f := range frames {
		Parse(f, st)
	}
	assert.Equal(t, 2, st.Chunks())
	assert.Equal(t, "aoopsc", st.Text())
}

func TestState_TitlesAcrossFrames(t *testing.T) {
	st := NewState()
	Parse(`{"type":"content","data":"推荐《三"}`, st)
	assert.Empty(t, st.Titles())

	Parse(`{"type":"content","data":"体》和《活着》，再看《三体》"}`, st)
	assert.Equal(t, []string{"三体", "活着"}, st.Titles())
}

func TestState_EmptyAndBlankTitlesIgnored(t *testing.T) {
	st := NewState()
	st.Append("《》《  》《 围城 》")
	assert.Equal(t, []string{"围城"}, st.Titles())
}

func TestState_UnclosedTitleGivesUpAfterLimit(t *testing.T) {
	st := NewState()
	st.Append("《")
	for i := 0; i < maxOpenTitle; i++ {
		st.Append("x")
	}
	st.Append("》后来《短》")
	assert.Equal(t, []string{"短"}, st.Titles())
}

func TestState_AppendRawSkipsDetection(t *testing.T) {
	st := NewState()
	st.Append("推荐《三体》")
	st.AppendRaw("<br>著有《球状闪电》")
	st.Append("，还有《活着》")

	assert.Equal(t, "推荐《三体》<br>著有《球状闪电》，还有《活着》", st.Text())
	assert.Equal(t, []string{"三体", "活着"}, st.Titles())
}

func TestState_ResolveRequiresDetectedTitle(t *testing.T) {
	st := NewState()
	st.Append("《三体》")

	require.NoError(t, st.Resolve("三体", catalog.Record{Title: "三体"}))
	assert.Error(t, st.Resolve("活着", catalog.Record{Title: "活着"}))
	assert.Equal(t, 1, st.ResolvedCount())

	rec, ok := st.Resolved("三体")
	assert.True(t, ok)
	assert.Equal(t, "三体", rec.Title)
}

func TestAfterBoundary(t *testing.T) {
	assert.Equal(t, "b", AfterBoundary("<think>a</think>b"))
	assert.Equal(t, "c", AfterBoundary("</think>b</think>c"))
	assert.Equal(t, "plain", AfterBoundary("plain"))
}

func TestExtractTitles(t *testing.T) {
	assert.Equal(t, []string{"三体", "活着"}, ExtractTitles("《三体》《活着》《三体》《》"))
	assert.Nil(t, ExtractTitles("没有书名"))
}
