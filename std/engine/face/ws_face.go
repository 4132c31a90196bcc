package face

import (
	"fmt"

	"github.com/gorilla/websocket"
	enc "github.com/named-data/ndnplay/std/encoding"
)

// WebSocketFace connects to a forwarder over WebSocket.
// Each binary message carries one packet.
type WebSocketFace struct {
	baseFace
	url  string
	conn *websocket.Conn
}

func NewWebSocketFace(url string, local bool) *WebSocketFace {
	return &WebSocketFace{
		baseFace: newBaseFace(local),
		url:      url,
	}
}

func (f *WebSocketFace) String() string {
	return fmt.Sprintf("websocket-face (%s)", f.url)
}

func (f *WebSocketFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	c, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateUp()
	go f.receive()

	return nil
}

func (f *WebSocketFace) Close() error {
	if !f.setStateClosed() {
		return errNotRunning
	}
	return f.conn.Close()
}

func (f *WebSocketFace) Send(pkt enc.Wire) error {
	if !f.IsRunning() {
		return errNotRunning
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()
	return f.conn.WriteMessage(websocket.BinaryMessage, pkt.Join())
}

func (f *WebSocketFace) receive() {
	defer f.setStateDown()

	for f.IsRunning() {
		messageType, pkt, err := f.conn.ReadMessage()
		if err != nil {
			if f.IsRunning() {
				f.onError(err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		f.onPkt(pkt)
	}
}
