package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output звуковой выход, в который микшируются треки
type Output interface {
	Init(sr beep.SampleRate) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

// speakerOutput выход на системные динамики. Инициализируется один раз.
type speakerOutput struct {
	once sync.Once
	err  error
}

func (o *speakerOutput) Init(sr beep.SampleRate) error {
	o.once.Do(func() {
		o.err = speaker.Init(sr, sr.N(time.Second/5))
	})
	return o.err
}

func (o *speakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (o *speakerOutput) Lock() {
	speaker.Lock()
}

func (o *speakerOutput) Unlock() {
	speaker.Unlock()
}
