package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Control message types (closed set).
const (
	MsgConfigRequest  = 0x03
	MsgConfigResponse = 0x04
	MsgKeyframeReq    = 0x05
	MsgPing           = 0x06
	MsgPong           = 0x07
	MsgDisconnect     = 0x08
)

// ConfigRequestSize is the fixed 8-byte CONFIG_REQUEST payload.
const ConfigRequestSize = 8

// ConfigRequest is the client's handshake payload.
type ConfigRequest struct {
	ClientWidth  uint16
	ClientHeight uint16
	VideoPort    uint16
	InputPort    uint16
}

func UnmarshalConfigRequest(payload []byte) (ConfigRequest, error) {
	if len(payload) != ConfigRequestSize {
		return ConfigRequest{}, fmt.Errorf("config request payload is %d bytes, want %d", len(payload), ConfigRequestSize)
	}
	return ConfigRequest{
		ClientWidth:  binary.BigEndian.Uint16(payload[0:2]),
		ClientHeight: binary.BigEndian.Uint16(payload[2:4]),
		VideoPort:    binary.BigEndian.Uint16(payload[4:6]),
		InputPort:    binary.BigEndian.Uint16(payload[6:8]),
	}, nil
}

// ConfigResponseSize is the fixed 15-byte CONFIG_RESPONSE payload.
const ConfigResponseSize = 15

// ConfigResponse is the negotiated session profile sent back to the client.
type ConfigResponse struct {
	ServerWidth     uint16
	ServerHeight    uint16
	VideoPort       uint16
	InputPort       uint16
	AudioPort       uint16 // 0 = no audio
	AudioSampleRate uint16
	AudioChannels   uint8
	AudioFrameMs    uint8
	CodecType       uint8 // 0=AV1, 1=HEVC, 2=H264
}

func (c ConfigResponse) Marshal() []byte {
	buf := make([]byte, ConfigResponseSize)
	binary.BigEndian.PutUint16(buf[0:2], c.ServerWidth)
	binary.BigEndian.PutUint16(buf[2:4], c.ServerHeight)
	binary.BigEndian.PutUint16(buf[4:6], c.VideoPort)
	binary.BigEndian.PutUint16(buf[6:8], c.InputPort)
	binary.BigEndian.PutUint16(buf[8:10], c.AudioPort)
	binary.BigEndian.PutUint16(buf[10:12], c.AudioSampleRate)
	buf[12] = c.AudioChannels
	buf[13] = c.AudioFrameMs
	buf[14] = c.CodecType
	return buf
}

// WriteMessage frames and writes one control message:
// [length_be:2][type:1][payload].
func WriteMessage(w io.Writer, msgType uint8, payload []byte) error {
	length := len(payload) + 1
	if length > 0xFFFF {
		return fmt.Errorf("control message too large: %d bytes", length)
	}
	header := make([]byte, 3)
	binary.BigEndian.PutUint16(header[0:2], uint16(length))
	header[2] = msgType
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// ReadMessage reads one framed control message from r, blocking until the
// full frame (or an error) arrives. r is expected to be a *bufio.Reader (or
// equivalent) wrapping a socket already configured for the caller's desired
// blocking behaviour.
func ReadMessage(r *bufio.Reader) (msgType uint8, payload []byte, err error) {
	var lenBuf [2]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	if length == 0 {
		return 0, nil, fmt.Errorf("control message length is 0")
	}
	body := make([]byte, length)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return body[0], body[1:], nil
}
