package content

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"finitefield.org/holding-web/internal/cache"
	"finitefield.org/holding-web/internal/cms"
	"finitefield.org/holding-web/internal/i18n"
	"finitefield.org/holding-web/internal/nav"
)

// ViewModel is a read-only snapshot of every collection a page renders.
// Slices are shared with the cache and must not be mutated. They are never nil.
type ViewModel struct {
	Lang           string               `json:"lang"`
	Dir            string               `json:"dir"`
	Settings       map[string]any       `json:"settings"`
	Menu           []nav.MenuItem       `json:"menu"`
	Hero           *cms.Hero            `json:"hero"`
	About          *cms.About           `json:"about"`
	StrategyBlocks []cms.StrategyBlock  `json:"strategy_blocks"`
	Companies      []cms.Company        `json:"companies"`
	Board          []cms.BoardMember    `json:"board"`
	Speeches       []cms.Speech         `json:"speeches"`
	Governance     []cms.GovernanceItem `json:"governance"`
	ESG            []cms.ESGItem        `json:"esg"`
	News           []cms.NewsItem       `json:"news"`
	Posts          []cms.Post           `json:"posts"`
	Pages          []cms.Page           `json:"pages"`
	IsLoading      bool                 `json:"is_loading"`
	IsError        bool                 `json:"is_error"`
	Err            error                `json:"-"`
	Failed         []cms.Resource       `json:"failed,omitempty"`
	Pending        []cms.Resource       `json:"pending,omitempty"`
}

// Aggregator builds view models for one page view. Safe for concurrent use.
type Aggregator struct {
	svc  *Service
	mu   sync.RWMutex
	lang string
}

// Lang returns the active language.
func (a *Aggregator) Lang() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lang
}

// SetLanguage switches the language for subsequent loads. Entries cached for
// the previous language stay in the store.
func (a *Aggregator) SetLanguage(lang string) {
	a.mu.Lock()
	a.lang = a.svc.Lang(lang)
	a.mu.Unlock()
}

// Load fetches every collection in parallel and waits for all of them.
func (a *Aggregator) Load(ctx context.Context) ViewModel {
	return a.collect(ctx, true)
}

// Snapshot returns what the cache holds now and schedules loads for the rest.
func (a *Aggregator) Snapshot(ctx context.Context) ViewModel {
	return a.collect(ctx, false)
}

// outcome is one collection's contribution to the view model.
type outcome struct {
	resource cms.Resource
	loading  bool
	err      error
	apply    func(*ViewModel)
}

type slot func(ctx context.Context, s *Service, lang string, blocking bool) outcome

// slots lists collections in declared order. The first failing slot supplies ViewModel.Err.
var slots = []slot{
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceSettings, lang, blocking, s.settingsLoader(lang),
			func(vm *ViewModel, v map[string]any) { vm.Settings = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceMenu, lang, blocking, s.menuLoader(lang),
			func(vm *ViewModel, v []nav.MenuItem) { vm.Menu = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceHero, lang, blocking, listLoader[cms.Hero](s, cms.ResourceHero, lang, nil),
			func(vm *ViewModel, v []cms.Hero) { vm.Hero = first(v) })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceAbout, lang, blocking, listLoader[cms.About](s, cms.ResourceAbout, lang, nil),
			func(vm *ViewModel, v []cms.About) { vm.About = first(v) })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceStrategyBlocks, lang, blocking, listLoader(s, cms.ResourceStrategyBlocks, lang, byOrder[cms.StrategyBlock]),
			func(vm *ViewModel, v []cms.StrategyBlock) { vm.StrategyBlocks = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceCompanies, lang, blocking, listLoader(s, cms.ResourceCompanies, lang, byOrder[cms.Company]),
			func(vm *ViewModel, v []cms.Company) { vm.Companies = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceBoard, lang, blocking, listLoader(s, cms.ResourceBoard, lang, byOrder[cms.BoardMember]),
			func(vm *ViewModel, v []cms.BoardMember) { vm.Board = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceSpeeches, lang, blocking, listLoader(s, cms.ResourceSpeeches, lang, speechesNewestFirst),
			func(vm *ViewModel, v []cms.Speech) { vm.Speeches = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceGovernance, lang, blocking, listLoader(s, cms.ResourceGovernance, lang, byOrder[cms.GovernanceItem]),
			func(vm *ViewModel, v []cms.GovernanceItem) { vm.Governance = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceESG, lang, blocking, listLoader(s, cms.ResourceESG, lang, byPillar),
			func(vm *ViewModel, v []cms.ESGItem) { vm.ESG = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourceNews, lang, blocking, listLoader(s, cms.ResourceNews, lang, newsNewestFirst),
			func(vm *ViewModel, v []cms.NewsItem) { vm.News = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourcePosts, lang, blocking, listLoader(s, cms.ResourcePosts, lang, postsNewestFirst),
			func(vm *ViewModel, v []cms.Post) { vm.Posts = v })
	},
	func(ctx context.Context, s *Service, lang string, blocking bool) outcome {
		return resolve(ctx, s, cms.ResourcePages, lang, blocking, listLoader(s, cms.ResourcePages, lang, byOrder[cms.Page]),
			func(vm *ViewModel, v []cms.Page) { vm.Pages = v })
	},
}

func (a *Aggregator) collect(ctx context.Context, blocking bool) ViewModel {
	lang := a.Lang()
	results := make([]outcome, len(slots))

	var g errgroup.Group
	for i, fill := range slots {
		g.Go(func() error {
			results[i] = fill(ctx, a.svc, lang, blocking)
			return nil
		})
	}
	_ = g.Wait()

	vm := ViewModel{Lang: lang, Dir: i18n.Dir(lang)}
	for _, r := range results {
		r.apply(&vm)
		if r.loading {
			vm.IsLoading = true
			vm.Pending = append(vm.Pending, r.resource)
		}
		if r.err != nil {
			if !vm.IsError {
				vm.Err = r.err
			}
			vm.IsError = true
			vm.Failed = append(vm.Failed, r.resource)
		}
	}
	vm.fillEmpty()
	return vm
}

// fillEmpty replaces collections that failed or are still loading with empty values.
func (vm *ViewModel) fillEmpty() {
	if vm.Settings == nil {
		vm.Settings = map[string]any{}
	}
	vm.Menu = orEmpty(vm.Menu)
	vm.StrategyBlocks = orEmpty(vm.StrategyBlocks)
	vm.Companies = orEmpty(vm.Companies)
	vm.Board = orEmpty(vm.Board)
	vm.Speeches = orEmpty(vm.Speeches)
	vm.Governance = orEmpty(vm.Governance)
	vm.ESG = orEmpty(vm.ESG)
	vm.News = orEmpty(vm.News)
	vm.Posts = orEmpty(vm.Posts)
	vm.Pages = orEmpty(vm.Pages)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func resolve[T any](ctx context.Context, s *Service, resource cms.Resource, lang string, blocking bool, load func(context.Context) (T, error), assign func(*ViewModel, T)) outcome {
	key := cache.Key{Resource: resource, Lang: lang}
	policy := s.Policy(resource)

	var res cache.Result[T]
	if blocking {
		res = cache.GetOrFetch(ctx, s.store, key, policy, load)
	} else {
		cache.Prefetch(ctx, s.store, key, policy, load)
		res = cache.PeekAs[T](s.store, key)
	}
	data := res.Data
	return outcome{
		resource: resource,
		loading:  res.IsLoading,
		err:      res.Err,
		apply:    func(vm *ViewModel) { assign(vm, data) },
	}
}

func first[T any](items []T) *T {
	if len(items) == 0 {
		return nil
	}
	v := items[0]
	return &v
}
