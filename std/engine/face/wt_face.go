package face

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	enc "github.com/named-data/ndnplay/std/encoding"
	"github.com/named-data/ndnplay/std/ndn"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/webtransport-go"
)

// WebTransportFace connects to a forwarder's HTTP/3 WebTransport listener.
// Packets are exchanged as QUIC datagrams.
type WebTransportFace struct {
	baseFace
	url         string
	insecure    bool
	dialTimeout time.Duration
	sess        *webtransport.Session
}

func NewWebTransportFace(url string, insecure bool) *WebTransportFace {
	return &WebTransportFace{
		baseFace:    newBaseFace(false),
		url:         url,
		insecure:    insecure,
		dialTimeout: 10 * time.Second,
	}
}

func (f *WebTransportFace) String() string {
	return fmt.Sprintf("webtransport-face (%s)", f.url)
}

func (f *WebTransportFace) Open() error {
	if err := f.checkOpen(); err != nil {
		return err
	}

	d := webtransport.Dialer{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: f.insecure,
			MinVersion:         tls.VersionTLS12,
		},
		QUICConfig: &quic.Config{
			MaxIdleTimeout:          60 * time.Second,
			KeepAlivePeriod:         30 * time.Second,
			DisablePathMTUDiscovery: true,
			EnableDatagrams:         true,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.dialTimeout)
	defer cancel()
	_, sess, err := d.Dial(ctx, f.url, nil)
	if err != nil {
		return err
	}

	f.sess = sess
	f.setStateUp()
	go f.receive()

	return nil
}

func (f *WebTransportFace) Close() error {
	if !f.setStateClosed() {
		return errNotRunning
	}
	return f.sess.CloseWithError(0, "")
}

func (f *WebTransportFace) Send(pkt enc.Wire) error {
	if !f.IsRunning() {
		return errNotRunning
	}
	frame := pkt.Join()
	if len(frame) > ndn.MaxNDNPacketSize {
		return ndn.ErrInvalidValue{Item: "frame size", Value: len(frame)}
	}
	return f.sess.SendDatagram(frame)
}

func (f *WebTransportFace) receive() {
	defer f.setStateDown()

	for f.IsRunning() {
		msg, err := f.sess.ReceiveDatagram(f.sess.Context())
		if err != nil {
			if f.IsRunning() {
				f.onError(err)
			}
			return
		}
		f.onPkt(msg)
	}
}
