package synth

import (
	"context"
	"io"
	"log"

	"github.com/gordonklaus/portaudio"
	"github.com/hajimehoshi/oto"
)

// ----- Sink ----- //

// Sink is the audio device collaborator: it pulls rendered blocks from
// the engine and plays them. Exactly one sink drives an engine at a time,
// since the puller is the audio thread.
type Sink interface {
	// Start blocks until ctx is cancelled or the device fails.
	Start(ctx context.Context) error
	Close() error
}

// NewSink ...
func NewSink(backend string, e *Engine) (Sink, error) {
	switch backend {
	case "portaudio":
		return newPortaudioSink(e)
	default:
		return newOtoSink(e)
	}
}

// ----- oto ----- //

type otoSink struct {
	engine     *Engine
	otoContext *oto.Context
	bufSize    int
}

func newOtoSink(e *Engine) (*otoSink, error) {
	cfg := e.Config()
	bufSize := cfg.BlockSize * bitDepthInBytes * cfg.ChannelCount
	otoContext, err := oto.NewContext(cfg.SampleRate, cfg.ChannelCount, bitDepthInBytes, bufSize)
	if err != nil {
		return nil, err
	}
	return &otoSink{
		engine:     e,
		otoContext: otoContext,
		bufSize:    bufSize,
	}, nil
}

func (s *otoSink) Start(ctx context.Context) error {
	p := s.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	// block until cancel() called
	if _, err := io.CopyBuffer(p, &cancelReader{ctx: ctx, r: s.engine}, make([]byte, s.bufSize)); err != nil {
		return err
	}
	log.Println("otoSink.Start() ended.")
	return nil
}

func (s *otoSink) Close() error {
	return s.otoContext.Close()
}

// cancelReader ends the copy loop when the context is done.
type cancelReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *cancelReader) Read(p []byte) (int, error) {
	select {
	case <-c.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		return c.r.Read(p)
	}
}

// ----- portaudio ----- //

type portaudioSink struct {
	engine *Engine
	stream *portaudio.Stream
	buf    []float64
}

func newPortaudioSink(e *Engine) (*portaudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	cfg := e.Config()
	s := &portaudioSink{
		engine: e,
		buf:    make([]float64, cfg.BlockSize*cfg.ChannelCount),
	}
	stream, err := portaudio.OpenDefaultStream(
		0, cfg.ChannelCount, float64(cfg.SampleRate), cfg.BlockSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

// process runs on the device callback thread; it renders one interleaved
// block and fans it out to portaudio's per-channel buffers.
func (s *portaudioSink) process(out [][]float32) {
	channels := len(out)
	frames := len(out[0])
	s.engine.RenderBlock(s.buf[:frames*channels], frames, channels)
	for c := 0; c < channels; c++ {
		for i := 0; i < frames; i++ {
			out[c][i] = float32(s.buf[i*channels+c])
		}
	}
}

func (s *portaudioSink) Start(ctx context.Context) error {
	if err := s.stream.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	if err := s.stream.Stop(); err != nil {
		return err
	}
	log.Println("portaudioSink.Start() ended.")
	return nil
}

func (s *portaudioSink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}
