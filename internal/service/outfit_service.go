package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/mapper"
	"outfit-stylist-be/internal/pkg/logger"
	"outfit-stylist-be/internal/repository/localcache"
	"outfit-stylist-be/internal/repository/memory"
	"outfit-stylist-be/internal/repository/specification"
	"outfit-stylist-be/internal/repository/unitofwork"
	"outfit-stylist-be/pkg/events"
	"outfit-stylist-be/pkg/gateway"
	"outfit-stylist-be/pkg/stylist"
	"outfit-stylist-be/pkg/tier"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUploadFailed means no storage tier accepted the image.
	ErrUploadFailed     = errors.New("upload failed")
	ErrInvalidCategory  = errors.New("invalid image category")
	ErrUnsupportedImage = errors.New("unsupported image")
	ErrTooManyImages    = errors.New("too many images")
	ErrIdCollision      = errors.New("outfit id collision")
)

const maxIdAttempts = 3

const (
	OperationUpload   = "upload"
	OperationAnalyze  = "analyze"
	OperationSave     = "save"
	OperationFetchAll = "fetch_all"
	OperationDelete   = "delete"

	TierBucket    = "bucket"
	TierRemote    = "remote"
	TierSynthetic = "synthetic"
	TierFunction  = "function"
	TierStore     = "store"
	TierLocal     = "local"
	TierMemory    = "memory"
)

type IOutfitService interface {
	Upload(ctx context.Context, sessionId string, upload *entity.ImageUpload) (*dto.UploadImageResponse, error)
	UploadOutfit(ctx context.Context, sessionId string, uploads []*entity.ImageUpload) (*dto.UploadOutfitResponse, error)
	Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalyzeOutfitResponse, error)
	Save(ctx context.Context, req *dto.SaveOutfitRequest) (*dto.OutfitResponse, error)
	FetchAll(ctx context.Context, sessionId string) ([]*dto.OutfitResponse, error)
	Delete(ctx context.Context, id string) (*dto.DeleteOutfitResponse, error)
	TierStats(ctx context.Context) []*dto.TierStatResponse
	Presets(ctx context.Context) *dto.PresetCatalogResponse
}

type uploadInput struct {
	sessionId string
	upload    *entity.ImageUpload
	mime      *mimetype.MIME
}

type analysisResult struct {
	payload *dto.AnalysisPayload
	record  *entity.OutfitRecord
}

type outfitService struct {
	uowFactory     unitofwork.RepositoryFactory
	functions      gateway.FunctionClient
	analyzer       gateway.Analyzer
	bucket         gateway.Bucket
	localCache     *localcache.OutfitCache
	pending        *localcache.OutfitCache
	synthesizer    *stylist.Synthesizer
	statsRepo      *memory.TierStatsRepository
	eventPublisher events.Publisher
	logger         logger.ILogger
	mapper         *mapper.OutfitMapper
	now            func() time.Time

	uploadExec   *tier.Executor[uploadInput, string]
	analyzeExec  *tier.Executor[entity.OutfitContext, analysisResult]
	saveExec     *tier.Executor[*entity.OutfitRecord, *entity.OutfitRecord]
	fetchAllExec *tier.Executor[string, []*entity.OutfitRecord]
	deleteExec   *tier.Executor[string, bool]
}

// NewOutfitService wires every operation to its ordered tiers. Any of
// uowFactory, functions, analyzer, localCache or eventPublisher may be nil; the
// tiers that need them then fail and fall through. Saves that no other tier
// accepts are held in process memory.
func NewOutfitService(
	uowFactory unitofwork.RepositoryFactory,
	functions gateway.FunctionClient,
	analyzer gateway.Analyzer,
	bucket gateway.Bucket,
	localCache *localcache.OutfitCache,
	synthesizer *stylist.Synthesizer,
	statsRepo *memory.TierStatsRepository,
	eventPublisher events.Publisher,
	observer tier.Observer,
	sysLogger logger.ILogger,
	tierTimeout time.Duration,
) IOutfitService {
	if synthesizer == nil {
		synthesizer = stylist.NewSynthesizer(nil, nil)
	}
	if sysLogger == nil {
		sysLogger = logger.NewNopLogger()
	}

	s := &outfitService{
		uowFactory:     uowFactory,
		functions:      functions,
		analyzer:       analyzer,
		bucket:         bucket,
		localCache:     localCache,
		pending:        localcache.NewOutfitCache(localcache.NewMemoryStore(), ""),
		synthesizer:    synthesizer,
		statsRepo:      statsRepo,
		eventPublisher: eventPublisher,
		logger:         sysLogger,
		mapper:         mapper.NewOutfitMapper(),
		now:            time.Now,
	}

	opts := []tier.Option{tier.WithTimeout(tierTimeout), tier.WithObserver(observer)}

	s.uploadExec = tier.NewExecutor(OperationUpload, []tier.Tier[uploadInput, string]{
		tier.New(TierBucket, s.uploadToBucket),
	}, opts...)

	s.analyzeExec = tier.NewExecutor(OperationAnalyze, []tier.Tier[entity.OutfitContext, analysisResult]{
		tier.New(TierRemote, s.analyzeRemote),
		tier.New(TierSynthetic, s.analyzeSynthetic),
	}, opts...)

	s.saveExec = tier.NewExecutor(OperationSave, []tier.Tier[*entity.OutfitRecord, *entity.OutfitRecord]{
		tier.New(TierFunction, s.saveFunction),
		tier.New(TierStore, s.saveStore),
		tier.New(TierLocal, s.saveLocal),
		tier.New(TierMemory, s.saveMemory),
	}, opts...)

	s.fetchAllExec = tier.NewExecutor(OperationFetchAll, []tier.Tier[string, []*entity.OutfitRecord]{
		tier.New(TierFunction, s.fetchFunction),
		tier.New(TierStore, s.fetchStore),
		tier.New(TierLocal, s.fetchLocal),
		tier.New(TierMemory, s.fetchMemory),
	}, opts...)

	s.deleteExec = tier.NewExecutor(OperationDelete, []tier.Tier[string, bool]{
		tier.New(TierFunction, s.deleteFunction),
		tier.New(TierStore, s.deleteStore),
	}, opts...)

	return s
}

func (s *outfitService) Upload(ctx context.Context, sessionId string, upload *entity.ImageUpload) (*dto.UploadImageResponse, error) {
	slot, ok := entity.ParseSlot(string(upload.Category))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, upload.Category)
	}
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	mime := mimetype.Detect(upload.Data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime.String())
	}

	normalized := *upload
	normalized.Category = slot

	url, outcome, err := s.uploadExec.Execute(ctx, uploadInput{
		sessionId: sessionId,
		upload:    &normalized,
		mime:      mime,
	})
	if err != nil {
		s.logger.Error("OutfitService", "Upload exhausted all tiers", map[string]interface{}{
			"session_id": sessionId,
			"category":   string(slot),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	s.logger.Info("OutfitService", "Image uploaded", map[string]interface{}{
		"session_id": sessionId,
		"category":   string(slot),
		"tier":       outcome.Tier,
	})
	return &dto.UploadImageResponse{Category: string(slot), Url: url}, nil
}

// UploadOutfit stores up to one image per slot concurrently. It succeeds when
// at least one image was stored and reports the slots that were not.
func (s *outfitService) UploadOutfit(ctx context.Context, sessionId string, uploads []*entity.ImageUpload) (*dto.UploadOutfitResponse, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrUploadFailed)
	}
	if len(uploads) > len(entity.Slots) {
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyImages, len(entity.Slots))
	}

	seen := make(map[entity.Slot]bool, len(uploads))
	for _, u := range uploads {
		slot, ok := entity.ParseSlot(string(u.Category))
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, u.Category)
		}
		if seen[slot] {
			return nil, fmt.Errorf("%w: duplicate %q", ErrInvalidCategory, slot)
		}
		seen[slot] = true
	}

	var (
		mu     sync.Mutex
		images = make(map[string]string, len(uploads))
		failed = make(map[entity.Slot]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range uploads {
		g.Go(func() error {
			res, err := s.Upload(gctx, sessionId, u)

			mu.Lock()
			defer mu.Unlock()
			slot, _ := entity.ParseSlot(string(u.Category))
			if err != nil {
				failed[slot] = true
				return nil
			}
			images[res.Category] = res.Url
			return nil
		})
	}
	_ = g.Wait()

	if len(images) == 0 {
		return nil, fmt.Errorf("%w: none of %d images could be stored", ErrUploadFailed, len(uploads))
	}

	res := &dto.UploadOutfitResponse{Images: images}
	for _, slot := range entity.Slots {
		if failed[slot] {
			res.Failed = append(res.Failed, string(slot))
		}
	}
	return res, nil
}

func (s *outfitService) uploadToBucket(ctx context.Context, in uploadInput) (string, error) {
	if s.bucket == nil {
		return "", fmt.Errorf("%w: no bucket configured", tier.ErrTierUnavailable)
	}
	key := fmt.Sprintf("%s/%s/%s%s",
		safeSegment(in.sessionId),
		in.upload.Category,
		uuid.NewString(),
		in.mime.Extension(),
	)
	return s.bucket.Put(ctx, key, in.mime.String(), in.upload.Data)
}

// Analyze never fails: the synthetic tier always produces a result.
func (s *outfitService) Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalyzeOutfitResponse, error) {
	result, outcome, err := s.analyzeExec.Execute(ctx, oc)
	if err != nil {
		// Only reachable if the synthesizer panicked.
		s.logger.Error("OutfitService", "Analyze exhausted all tiers", map[string]interface{}{
			"session_id": oc.Session.SessionId,
			"error":      err.Error(),
		})
		payload := s.synthesizer.Synthesize(oc)
		result = analysisResult{
			payload: payload,
			record:  s.mapper.FromAnalysis(entity.NewSyntheticId(), oc, payload),
		}
	}

	s.logger.Info("OutfitService", "Outfit analyzed", map[string]interface{}{
		"session_id": oc.Session.SessionId,
		"tier":       outcome.Tier,
		"outfit_id":  result.record.Id,
	})
	return &dto.AnalyzeOutfitResponse{
		Analysis: result.payload,
		Outfit:   s.mapper.ToResponse(result.record),
	}, nil
}

func (s *outfitService) analyzeRemote(ctx context.Context, oc entity.OutfitContext) (analysisResult, error) {
	if s.analyzer == nil {
		return analysisResult{}, fmt.Errorf("%w: no analyzer configured", tier.ErrTierUnavailable)
	}
	raw, err := s.analyzer.Analyze(ctx, oc)
	if err != nil {
		return analysisResult{}, err
	}
	payload := s.mapper.NormalizeAnalysis(oc.Images, raw)
	if !payload.Descriptive() {
		return analysisResult{}, tier.ErrMalformedResponse
	}
	return analysisResult{
		payload: payload,
		record:  s.mapper.FromAnalysis(entity.NewAnalysisId(), oc, payload),
	}, nil
}

func (s *outfitService) analyzeSynthetic(ctx context.Context, oc entity.OutfitContext) (analysisResult, error) {
	payload := s.synthesizer.Synthesize(oc)
	return analysisResult{
		payload: payload,
		record:  s.mapper.FromAnalysis(entity.NewSyntheticId(), oc, payload),
	}, nil
}

func (s *outfitService) Save(ctx context.Context, req *dto.SaveOutfitRequest) (*dto.OutfitResponse, error) {
	record := s.mapper.FromSaveRequest(req)
	if season, ok := entity.ParseSeason(string(record.Season)); ok {
		record.Season = season
	}
	if formality, ok := entity.ParseFormality(string(record.Formality)); ok {
		record.Formality = formality
	}
	record.Saved = true
	record.CreatedAt = s.now()

	saved, outcome, err := s.saveExec.Execute(ctx, record)
	if err != nil {
		// Only reachable if the memory tier panicked or the request was
		// cancelled. The caller still gets its record back under a local id.
		s.logger.Error("OutfitService", "Save exhausted all tiers", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		saved = record.Clone()
		saved.Id = entity.NewLocalId()
		return s.mapper.ToResponse(saved), nil
	}

	s.publishEvent(ctx, events.OutfitSaved, map[string]interface{}{
		"id":         saved.Id,
		"session_id": saved.SessionId,
		"tier":       outcome.Tier,
	})
	return s.mapper.ToResponse(saved), nil
}

func (s *outfitService) saveFunction(ctx context.Context, record *entity.OutfitRecord) (*entity.OutfitRecord, error) {
	if s.functions == nil {
		return nil, fmt.Errorf("%w: %w", tier.ErrTierUnavailable, gateway.ErrNotConfigured)
	}

	draft := record.Clone()
	draft.Id = ""

	var out dto.OutfitResponse
	if err := s.functions.Invoke(ctx, gateway.FunctionSaveOutfit, s.mapper.ToResponse(draft), &out); err != nil {
		return nil, err
	}
	if out.Id == "" || entity.OriginOf(out.Id) != entity.OriginBackend {
		return nil, fmt.Errorf("%w: save returned id %q", tier.ErrMalformedResponse, out.Id)
	}

	saved := record.Clone()
	saved.Id = out.Id
	if !out.CreatedAt.IsZero() {
		saved.CreatedAt = out.CreatedAt
	}
	return saved, nil
}

func (s *outfitService) saveStore(ctx context.Context, record *entity.OutfitRecord) (*entity.OutfitRecord, error) {
	if s.uowFactory == nil {
		return nil, fmt.Errorf("%w: no database", tier.ErrTierUnavailable)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.OutfitRepository()
	saved := record.Clone()
	for attempt := 0; ; attempt++ {
		saved.Id = uuid.NewString()
		existing, err := repo.FindOne(ctx, specification.ByID{ID: saved.Id})
		if err != nil {
			return nil, err
		}
		if existing == nil {
			break
		}
		if attempt == maxIdAttempts-1 {
			return nil, fmt.Errorf("%w: no free outfit id after %d attempts", ErrIdCollision, maxIdAttempts)
		}
	}

	if err := repo.Create(ctx, saved); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *outfitService) saveLocal(ctx context.Context, record *entity.OutfitRecord) (*entity.OutfitRecord, error) {
	if s.localCache == nil {
		return nil, fmt.Errorf("%w: no local cache", tier.ErrTierUnavailable)
	}

	saved := record.Clone()
	saved.Id = entity.NewLocalId()
	if err := s.localCache.Append(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *outfitService) saveMemory(ctx context.Context, record *entity.OutfitRecord) (*entity.OutfitRecord, error) {
	saved := record.Clone()
	saved.Id = entity.NewLocalId()
	if err := s.pending.Append(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// FetchAll never fails; total exhaustion yields an empty list.
func (s *outfitService) FetchAll(ctx context.Context, sessionId string) ([]*dto.OutfitResponse, error) {
	records, outcome, err := s.fetchAllExec.Execute(ctx, sessionId)
	if err != nil {
		s.logger.Error("OutfitService", "FetchAll exhausted all tiers", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return []*dto.OutfitResponse{}, nil
	}

	s.logger.Debug("OutfitService", "Outfits fetched", map[string]interface{}{
		"session_id": sessionId,
		"tier":       outcome.Tier,
		"count":      len(records),
	})
	return s.mapper.ToResponses(records), nil
}

func (s *outfitService) fetchFunction(ctx context.Context, sessionId string) ([]*entity.OutfitRecord, error) {
	if s.functions == nil {
		return nil, fmt.Errorf("%w: %w", tier.ErrTierUnavailable, gateway.ErrNotConfigured)
	}

	var out []*dto.OutfitResponse
	if err := s.functions.Invoke(ctx, gateway.FunctionListOutfits, dto.ListOutfitsFunctionRequest{SessionId: sessionId}, &out); err != nil {
		return nil, err
	}

	records := make([]*entity.OutfitRecord, 0, len(out))
	for _, item := range out {
		if item == nil || item.SessionId != sessionId {
			continue
		}
		records = append(records, s.mapper.FromResponse(item))
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *outfitService) fetchStore(ctx context.Context, sessionId string) ([]*entity.OutfitRecord, error) {
	if s.uowFactory == nil {
		return nil, fmt.Errorf("%w: no database", tier.ErrTierUnavailable)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.OutfitRepository().FindAll(ctx,
		specification.BySession{SessionID: sessionId},
		specification.SavedOnly{},
		specification.NewestFirst{},
	)
}

func (s *outfitService) fetchLocal(ctx context.Context, sessionId string) ([]*entity.OutfitRecord, error) {
	if s.localCache == nil {
		return nil, fmt.Errorf("%w: no local cache", tier.ErrTierUnavailable)
	}
	records, err := s.localCache.FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	held, err := s.pending.FindBySession(ctx, sessionId)
	if err != nil || len(held) == 0 {
		return records, nil
	}
	records = append(records, held...)
	sortNewestFirst(records)
	return records, nil
}

// fetchMemory serves the saves held in process memory while the local cache
// was unreachable.
func (s *outfitService) fetchMemory(ctx context.Context, sessionId string) ([]*entity.OutfitRecord, error) {
	return s.pending.FindBySession(ctx, sessionId)
}

// Delete dispatches on the id's origin. Local ids only ever touch the local
// cache; backend ids never do, so the two stores cannot drift apart.
func (s *outfitService) Delete(ctx context.Context, id string) (*dto.DeleteOutfitResponse, error) {
	res := &dto.DeleteOutfitResponse{Id: id}

	switch entity.OriginOf(id) {
	case entity.OriginLocal:
		res.Deleted = s.deleteLocal(ctx, id)

	case entity.OriginSynthetic, entity.OriginAnalysis:
		// Transient analysis records are never stored anywhere.
		return res, nil

	default:
		deleted, _, err := s.deleteExec.Execute(ctx, id)
		if err != nil {
			s.logger.Error("OutfitService", "Delete exhausted all tiers", map[string]interface{}{
				"outfit_id": id,
				"error":     err.Error(),
			})
			return res, nil
		}
		res.Deleted = deleted
	}

	if res.Deleted {
		s.publishEvent(ctx, events.OutfitDeleted, map[string]interface{}{
			"id": id,
		})
	}
	return res, nil
}

// deleteLocal removes id from the local cache and from process memory; a
// local id lives in at most one of them.
func (s *outfitService) deleteLocal(ctx context.Context, id string) bool {
	if held, _ := s.pending.Remove(ctx, id); held {
		return true
	}
	if s.localCache == nil {
		return false
	}
	deleted, err := s.localCache.Remove(ctx, id)
	if err != nil {
		s.logger.Error("OutfitService", "Failed to delete local outfit", map[string]interface{}{
			"outfit_id": id,
			"error":     err.Error(),
		})
		return false
	}
	return deleted
}

func (s *outfitService) deleteFunction(ctx context.Context, id string) (bool, error) {
	if s.functions == nil {
		return false, fmt.Errorf("%w: %w", tier.ErrTierUnavailable, gateway.ErrNotConfigured)
	}

	var out dto.DeleteOutfitFunctionResponse
	if err := s.functions.Invoke(ctx, gateway.FunctionDeleteOutfit, dto.DeleteOutfitFunctionRequest{Id: id}, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

func (s *outfitService) deleteStore(ctx context.Context, id string) (bool, error) {
	if s.uowFactory == nil {
		return false, fmt.Errorf("%w: no database", tier.ErrTierUnavailable)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.OutfitRepository().Delete(ctx, id)
}

func (s *outfitService) TierStats(ctx context.Context) []*dto.TierStatResponse {
	res := make([]*dto.TierStatResponse, 0)
	if s.statsRepo == nil {
		return res
	}

	for _, stat := range s.statsRepo.Snapshot() {
		res = append(res, &dto.TierStatResponse{
			Operation:    stat.Operation,
			LastTier:     stat.LastTier,
			LastServedAt: stat.LastServedAt,
			Served:       stat.Served,
			Failed:       stat.Failed,
		})
	}
	return res
}

func (s *outfitService) Presets(ctx context.Context) *dto.PresetCatalogResponse {
	catalog := s.synthesizer.Catalog()

	res := &dto.PresetCatalogResponse{
		Seasons:       make([]dto.SeasonPresetResponse, 0, len(entity.Seasons)),
		Formalities:   make([]string, 0, len(entity.Formalities)),
		DefaultSeason: string(catalog.DefaultSeason()),
	}
	for _, preset := range catalog.Seasons() {
		res.Seasons = append(res.Seasons, dto.SeasonPresetResponse{
			Season:      string(preset.Season),
			Colors:      preset.Colors,
			Accessories: preset.Accessories,
			Aesthetic:   preset.Aesthetic,
			Description: preset.Description,
		})
	}
	for _, f := range entity.Formalities {
		res.Formalities = append(res.Formalities, string(f))
	}
	return res
}

func (s *outfitService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}

	event := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: s.now(),
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("OutfitService", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func sortNewestFirst(records []*entity.OutfitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// safeSegment keeps a session id usable as a single object key segment.
func safeSegment(s string) string {
	b := strings.Builder{}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "anonymous"
	}
	return b.String()
}
