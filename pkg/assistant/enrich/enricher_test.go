package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"library-ai-be/pkg/assistant/catalog"
	"library-ai-be/pkg/assistant/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	mu      sync.Mutex
	records map[string][]catalog.Record
	fail    map[string]error
	calls   map[string]int
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		records: map[string][]catalog.Record{},
		fail:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (c *stubCatalog) Lookup(ctx context.Context, keyword string) ([]catalog.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[keyword]++
	if err := c.fail[keyword]; err != nil {
		return nil, err
	}
	return c.records[keyword], nil
}

func stateWith(text string) *stream.State {
	st := stream.NewState()
	st.Append(text)
	return st
}

func newTestEnricher(c catalog.Catalog) *Enricher {
	return NewEnricher(c, Config{Concurrency: 3, Interval: time.Millisecond}, nil)
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

func TestEnrich_NoTitles(t *testing.T) {
	c := newStubCatalog()
	res, err := newTestEnricher(c).Enrich(context.Background(), stateWith("没有提到书"))

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, c.calls)
}

func TestEnrich_TitlesOnlyBeforeBoundary(t *testing.T) {
	c := newStubCatalog()
	st := stateWith("<think>想到《围城》</think>我没有推荐")

	res, err := newTestEnricher(c).Enrich(context.Background(), st)

	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, c.calls)
	assert.Equal(t, "<think>想到《围城》</think>我没有推荐", st.Text())
}

func TestEnrich_RepeatedTitleLookedUpOnce(t *testing.T) {
	c := newStubCatalog()
	c.records["三体"] = []catalog.Record{{Title: "三体", Rating: ptrF(9), Quantity: ptrI(2)}}
	st := stateWith("《三体》很好，《三体》值得一读，《三体》是经典")

	res, err := newTestEnricher(c).Enrich(context.Background(), st)

	require.NoError(t, err)
	assert.Equal(t, 1, c.calls["三体"])
	require.Len(t, res.Books, 1)
	assert.Equal(t, 9.0, *res.Books[0].Rating)
	assert.Equal(t, 1, strings.Count(res.Summary, "《三体》"))
	assert.Contains(t, res.Summary, "《三体》，评分：9.0，馆藏数量：2<br>")
}

func TestEnrich_SummaryTitlesNotDetected(t *testing.T) {
	c := newStubCatalog()
	c.records["余华"] = []catalog.Record{{Title: "许三观卖血记", AuthorProfile: "余华，著有《活着》"}}
	st := stateWith("推荐《余华》的作品")

	res, err := newTestEnricher(c).Enrich(context.Background(), st)

	require.NoError(t, err)
	assert.Contains(t, res.Summary, "《活着》")
	assert.Contains(t, st.Text(), res.Summary)
	assert.Equal(t, []string{"余华"}, st.Titles())
	assert.False(t, st.HasTitle("活着"))
}

func TestEnrich_OneBookInfoPerRecord(t *testing.T) {
	c := newStubCatalog()
	c.records["活着"] = []catalog.Record{
		{Title: "活着", AuthorProfile: "余华", Rating: ptrF(9.4)},
		{Title: "活着（插图版）", AuthorProfile: "余华", Rating: ptrF(0), Quantity: ptrI(0)},
	}
	st := stateWith("推荐《活着》")

	res, err := newTestEnricher(c).Enrich(context.Background(), st)

	require.NoError(t, err)
	require.Len(t, res.Books, 2)
	assert.Nil(t, res.Books[1].Rating)
	assert.Nil(t, res.Books[1].Quantity)

	rec, ok := st.Resolved("活着")
	require.True(t, ok)
	assert.Equal(t, "活着", rec.Title)
}

func TestEnrich_FailedLookupOnlyLosesThatTitle(t *testing.T) {
	c := newStubCatalog()
	c.records["活着"] = []catalog.Record{{Title: "活着", AuthorProfile: "余华"}}
	c.fail["围城"] = errors.New("db down")
	st := stateWith("《围城》和《活着》")

	res, err := newTestEnricher(c).Enrich(context.Background(), st)

	require.NoError(t, err)
	require.Len(t, res.Books, 1)
	assert.Equal(t, []string{"围城", "活着"}, res.Looked)
	assert.Equal(t,
		"<br><br>书籍信息查询结果：<br />《围城》 - 未被馆藏收录<br>《活着》 - 余华<br>",
		res.Summary)
	assert.True(t, len(st.Text()) > len("《围城》和《活着》"), "summary is appended to the buffer")
}

func TestEnrich_CancelledContext(t *testing.T) {
	c := newStubCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEnricher(c).Enrich(ctx, stateWith("《三体》"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildSummary(t *testing.T) {
	st := stateWith("《A》《B》《C》")
	require.NoError(t, st.Resolve("A", catalog.Record{Title: "A", AuthorProfile: "作者", Publisher: "出版社", Rating: ptrF(8.5), Quantity: ptrI(3)}))
	require.NoError(t, st.Resolve("C", catalog.Record{Title: "C"}))

	got := BuildSummary(st.Titles(), st)

	assert.Equal(t,
		"<br><br>书籍信息查询结果：<br />"+
			"《A》 - 作者，出版社：出版社，评分：8.5，馆藏数量：3<br>"+
			"《B》 - 未被馆藏收录<br>"+
			"《C》<br>",
		got)
}
