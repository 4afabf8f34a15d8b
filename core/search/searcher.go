package search

import (
	"context"
	"sync"
	"time"

	"github.com/shriram-30/SpotifyClone/logger"
)

// DefaultDebounce 输入停止多久后才真正查询
const DefaultDebounce = 300 * time.Millisecond

// CandidateSource 按查询提供候选，通常是目录服务
type CandidateSource interface {
	Candidates(ctx context.Context, query string) (Candidates, error)
}

// Suggester 可选接口，结果为空时给出相近的名字
type Suggester interface {
	Suggest(ctx context.Context, query string) (string, error)
}

// Update 一次查询的结果，Err 不为空时 Result 为空结果
type Update struct {
	Query      string `json:"query"`
	Generation uint64 `json:"generation"`
	Result     Result `json:"result"`
	Err        error  `json:"-"`
}

// Searcher 防抖搜索：只有最近一次提交的查询能发布结果。
// publish 在持有内部锁时调用，不能阻塞，也不能回调 Searcher。
type Searcher struct {
	mu       sync.Mutex
	source   CandidateSource
	debounce time.Duration
	publish  func(Update)

	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// NewSearcher 创建防抖搜索器
func NewSearcher(source CandidateSource, debounce time.Duration, publish func(Update)) *Searcher {
	if debounce < 0 {
		debounce = 0
	}
	return &Searcher{
		source:   source,
		debounce: debounce,
		publish:  publish,
	}
}

// Submit 提交新查询并返回其代号。空查询立即发布空结果，不访问候选源
func (s *Searcher) Submit(query string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.gen
	}
	s.gen++
	gen := s.gen
	s.abortLocked()

	if len(Terms(query)) == 0 {
		s.publish(Update{Query: query, Generation: gen, Result: EmptyResult()})
		return gen
	}

	s.timer = time.AfterFunc(s.debounce, func() { s.run(gen, query) })
	return gen
}

// Cancel 放弃进行中的查询并发布空结果
func (s *Searcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	s.abortLocked()
	s.publish(Update{Generation: s.gen, Result: EmptyResult()})
}

// Close 停止搜索器，之后不再发布任何结果
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.gen++
	s.abortLocked()
}

// Generation 最近一次提交的代号
func (s *Searcher) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Searcher) abortLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Searcher) run(gen uint64, query string) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.timer = nil
	s.mu.Unlock()
	defer cancel()

	update := Update{Query: query, Generation: gen}
	update.Result, update.Err = Query(ctx, s.source, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		logger.Debug("丢弃过期的搜索结果",
			logger.String("query", query),
			logger.Uint64("generation", gen))
		return
	}
	s.cancel = nil
	if update.Err != nil {
		logger.Warn("搜索失败", logger.String("query", query), logger.ErrorField(update.Err))
	}
	s.publish(update)
}

// Query 立即执行一次查询：取候选、排序，结果为空时尝试给出建议。
// 出错时返回空结果和错误
func Query(ctx context.Context, source CandidateSource, query string) (Result, error) {
	if len(Terms(query)) == 0 {
		return EmptyResult(), nil
	}
	cands, err := source.Candidates(ctx, query)
	if err != nil {
		return EmptyResult(), err
	}
	result := Search(query, cands)
	if result.Empty() {
		if sg, ok := source.(Suggester); ok {
			if suggestion, err := sg.Suggest(ctx, query); err == nil {
				result.Suggestion = suggestion
			}
		}
	}
	return result, nil
}
