package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/pkg/engine"
)

func newWatchCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the render records of a running reframe dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(host)
		},
	}
	cmd.Flags().StringVar(&host, "host", "localhost:8089", "dashboard host:port")
	return cmd
}

func runWatch(host string) error {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws/records"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", u.String(), err)
	}
	defer conn.Close()
	log.Info("connected", "url", u.String())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			var r engine.RenderRecord
			if err := json.Unmarshal(data, &r); err != nil {
				log.Warn("unparseable record", "error", err)
				continue
			}
			fmt.Printf("%10.3fs  crop (%d,%d %dx%d) -> render (%d,%d %dx%d)  pad #%02x%02x%02x\n",
				float64(r.TimestampUS)/1e6,
				r.CropFrom.X, r.CropFrom.Y, r.CropFrom.Width, r.CropFrom.Height,
				r.RenderTo.X, r.RenderTo.Y, r.RenderTo.Width, r.RenderTo.Height,
				r.PaddingColor[0], r.PaddingColor[1], r.PaddingColor[2])
		}
	}()

	select {
	case err := <-done:
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		return err
	case <-interrupt:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	}
}
