package flipbook

import "context"

type slideRequestKind uint8

const (
	requestNext slideRequestKind = iota
	requestPrevious
	requestID
	requestFirst
	requestLast
)

// slideRequest is one queued navigation request.
type slideRequest struct {
	kind slideRequestKind
	id   string
}

// PresenterInfo summarizes the presentation state after a step.
type PresenterInfo struct {
	CurrentSlide string
	NextSlide    string
	HasNext      bool
	HasPrevious  bool
	IsWaiting    bool
	Count        int
	// Index is the position of CurrentSlide in the slide list, or -1.
	Index int
}

// Presenter drives a PlaybackManager as a click-to-advance presentation.
// Navigation requests are queued and consumed one per Step, so a host loop
// calling Step once per frame sees every intermediate state.
type Presenter struct {
	playback *PlaybackManager
	queue    []slideRequest
	resume   bool
	info     PresenterInfo
	changed  EventDispatcher[PresenterInfo]
}

// NewPresenter returns a presenter for an already set up manager.
func NewPresenter(p *PlaybackManager) *Presenter {
	return &Presenter{playback: p, info: PresenterInfo{Index: -1}}
}

// Playback returns the driven manager.
func (p *Presenter) Playback() *PlaybackManager { return p.playback }

// RequestNextSlide queues a move to the next slide. Consumed on the next Step.
func (p *Presenter) RequestNextSlide() {
	p.queue = append(p.queue, slideRequest{kind: requestNext})
}

// RequestPreviousSlide queues a move to the previous slide.
func (p *Presenter) RequestPreviousSlide() {
	p.queue = append(p.queue, slideRequest{kind: requestPrevious})
}

// RequestSlide queues a jump to the slide with the given id.
func (p *Presenter) RequestSlide(id string) {
	p.queue = append(p.queue, slideRequest{kind: requestID, id: id})
}

// RequestFirstSlide queues a jump to the first slide.
func (p *Presenter) RequestFirstSlide() {
	p.queue = append(p.queue, slideRequest{kind: requestFirst})
}

// RequestLastSlide queues a jump to the last slide.
func (p *Presenter) RequestLastSlide() {
	p.queue = append(p.queue, slideRequest{kind: requestLast})
}

// Resume releases the slide the presentation waits at, on the next Step.
func (p *Presenter) Resume() { p.resume = true }

// Pending returns the number of queued navigation requests.
func (p *Presenter) Pending() int { return len(p.queue) }

// Info returns the state computed by the last Step.
func (p *Presenter) Info() PresenterInfo { return p.info }

// OnInfoChanged subscribes fn to info updates.
func (p *Presenter) OnInfoChanged(fn func(PresenterInfo)) func() {
	return p.changed.Subscribe(fn)
}

// Start recalculates the timeline, rewinds it and optionally jumps to a
// slide. An empty slide id starts from the beginning.
func (p *Presenter) Start(ctx context.Context, slide string) error {
	pb := p.playback
	pb.SetState(PlaybackPlaying)
	if err := pb.Recalculate(ctx); err != nil {
		pb.Logger().Error(LogPayload{Message: err.Error(), Remarks: "presenting with partial timing"})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pb.SetState(PlaybackPresenting)
	if err := pb.Reset(ctx); err != nil {
		return err
	}
	if slide != "" {
		if err := pb.GoTo(ctx, slide); err != nil {
			return err
		}
	}
	p.updateInfo()
	return nil
}

// Step performs one frame of presentation: a queued navigation request if
// there is one, otherwise one tick of playback.
func (p *Presenter) Step(ctx context.Context) error {
	pb := p.playback
	if p.resume {
		p.resume = false
		pb.CurrentScene().Slides().Resume()
	}

	var err error
	if len(p.queue) > 0 {
		req := p.queue[0]
		copy(p.queue, p.queue[1:])
		p.queue = p.queue[:len(p.queue)-1]
		err = p.navigate(ctx, req)
	} else if !pb.Finished() {
		pb.SetState(PlaybackPresenting)
		_, err = pb.Progress(ctx)
	}
	p.updateInfo()
	return err
}

func (p *Presenter) navigate(ctx context.Context, req slideRequest) error {
	pb := p.playback
	pb.SetState(PlaybackPlaying)
	defer pb.SetState(PlaybackPresenting)

	slides := pb.Slides()
	switch req.kind {
	case requestNext:
		return pb.GoForward(ctx)
	case requestPrevious:
		return pb.GoBack(ctx)
	case requestFirst:
		if len(slides) > 0 {
			return pb.GoTo(ctx, slides[0].ID)
		}
	case requestLast:
		if len(slides) > 0 {
			return pb.GoTo(ctx, slides[len(slides)-1].ID)
		}
	case requestID:
		return pb.GoTo(ctx, req.id)
	}
	return nil
}

func (p *Presenter) updateInfo() {
	pb := p.playback
	slides := pb.Slides()
	info := PresenterInfo{Count: len(slides), Index: -1}
	if scene := pb.CurrentScene(); scene != nil {
		info.IsWaiting = scene.Slides().IsWaiting()
		if cur := scene.Slides().Current(); cur != nil {
			info.CurrentSlide = cur.ID
			info.Index = pb.slideIndex(cur.ID)
		}
	}
	if info.Index >= 0 {
		info.HasPrevious = info.Index > 0
		info.HasNext = info.Index+1 < len(slides)
		if info.HasNext {
			info.NextSlide = slides[info.Index+1].ID
		}
	} else if len(slides) > 0 {
		info.HasNext = true
		info.NextSlide = slides[0].ID
	}
	if info != p.info {
		p.info = info
		p.changed.Dispatch(info)
	}
}
