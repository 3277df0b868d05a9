package midi

import (
	"context"
	"fmt"
	"time"

	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/timing"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// Play sends the notes of c to MIDI output port in real time.
func Play(ctx context.Context, c *model.Chart, port int) error {
	defer gomidi.CloseDriver()
	out, err := gomidi.OutPort(port)
	if err != nil {
		return fmt.Errorf("can't find midi output %d: %w", port, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return err
	}

	start := time.Now()
	for _, m := range messages(Notes(c)) {
		at := start.Add(time.Duration(m.timestamp) * time.Second / timing.TimeDivision)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(at)):
		}
		if err := send(m.data); err != nil {
			return err
		}
	}
	return nil
}
