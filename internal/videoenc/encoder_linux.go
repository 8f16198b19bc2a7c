//go:build linux

package videoenc

/*
#cgo pkg-config: libavcodec libavutil libswscale
#include <libavcodec/avcodec.h>
#include <libavutil/opt.h>
#include <libavutil/hwcontext.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
	AVCodecContext *ctx;
	AVFrame *frame;
	AVPacket *pkt;
	int width;
	int height;
	int64_t pts;
} hwEncoder;

static hwEncoder* hw_encoder_open(const char *codec_name, const char *device,
                                    int width, int height, int fps,
                                    int64_t bitrate, int64_t max_bitrate, int64_t buffer_size,
                                    int gop_size, const char *preset, const char *rc_mode, int cqp) {
	const AVCodec *codec = avcodec_find_encoder_by_name(codec_name);
	if (!codec) return NULL;

	hwEncoder *e = (hwEncoder*)calloc(1, sizeof(hwEncoder));
	if (!e) return NULL;
	e->width = width;
	e->height = height;

	e->ctx = avcodec_alloc_context3(codec);
	if (!e->ctx) { free(e); return NULL; }

	e->ctx->width = width;
	e->ctx->height = height;
	e->ctx->time_base = (AVRational){1, fps};
	e->ctx->framerate = (AVRational){fps, 1};
	e->ctx->pix_fmt = AV_PIX_FMT_NV12;
	e->ctx->gop_size = gop_size;
	e->ctx->max_b_frames = 0;
	e->ctx->thread_count = 1;
	e->ctx->delay = 0;
	e->ctx->bit_rate = bitrate;
	e->ctx->rc_max_rate = max_bitrate;
	e->ctx->rc_buffer_size = (int)buffer_size;
	e->ctx->flags |= AV_CODEC_FLAG_LOW_DELAY;

	if (preset && preset[0]) av_opt_set(e->ctx->priv_data, "preset", preset, 0);
	if (rc_mode && rc_mode[0]) av_opt_set(e->ctx->priv_data, "rc_mode", rc_mode, 0);
	av_opt_set(e->ctx->priv_data, "tune", "zerolatency", 0);
	av_opt_set_int(e->ctx->priv_data, "async_depth", 1, 0);
	if (cqp > 0) av_opt_set_int(e->ctx->priv_data, "qp", cqp, 0);

	// VAAPI backends need an hw_device_ctx bound to the chosen render node.
	if (strstr(codec_name, "vaapi") != NULL && device && device[0]) {
		AVBufferRef *hw_ctx = NULL;
		if (av_hwdevice_ctx_create(&hw_ctx, AV_HWDEVICE_TYPE_VAAPI, device, NULL, 0) < 0) {
			avcodec_free_context(&e->ctx);
			free(e);
			return NULL;
		}
		e->ctx->hw_device_ctx = hw_ctx;
	} else if (strstr(codec_name, "nvenc") != NULL && device && device[0]) {
		av_opt_set(e->ctx->priv_data, "gpu", device, 0);
	}

	if (avcodec_open2(e->ctx, codec, NULL) < 0) {
		if (e->ctx->hw_device_ctx) av_buffer_unref(&e->ctx->hw_device_ctx);
		avcodec_free_context(&e->ctx);
		free(e);
		return NULL;
	}

	e->frame = av_frame_alloc();
	e->frame->format = AV_PIX_FMT_NV12;
	e->frame->width = width;
	e->frame->height = height;
	av_frame_get_buffer(e->frame, 0);

	e->pkt = av_packet_alloc();
	return e;
}

static int hw_encoder_encode(hwEncoder *e, const uint8_t *y, const uint8_t *uv,
                               int y_stride, int uv_stride, int force_key,
                               uint8_t **out_buf, int *out_size, int *is_key) {
	*out_size = 0;
	av_frame_make_writable(e->frame);
	memcpy(e->frame->data[0], y, (size_t)y_stride * e->height);
	memcpy(e->frame->data[1], uv, (size_t)uv_stride * (e->height / 2));
	e->frame->pts = e->pts++;
	if (force_key) {
		e->frame->pict_type = AV_PICTURE_TYPE_I;
		e->frame->flags |= AV_FRAME_FLAG_KEY;
	} else {
		e->frame->pict_type = AV_PICTURE_TYPE_NONE;
		e->frame->flags &= ~AV_FRAME_FLAG_KEY;
	}

	int ret = avcodec_send_frame(e->ctx, e->frame);
	if (ret < 0) return -1;

	ret = avcodec_receive_packet(e->ctx, e->pkt);
	if (ret == AVERROR(EAGAIN) || ret == AVERROR_EOF) return 0;
	if (ret < 0) return -1;

	*out_buf = e->pkt->data;
	*out_size = e->pkt->size;
	*is_key = (e->pkt->flags & AV_PKT_FLAG_KEY) ? 1 : 0;
	return 0;
}

static void hw_encoder_unref(hwEncoder *e) { av_packet_unref(e->pkt); }

static void hw_encoder_close(hwEncoder *e) {
	if (!e) return;
	if (e->pkt) av_packet_free(&e->pkt);
	if (e->frame) av_frame_free(&e->frame);
	if (e->ctx) {
		if (e->ctx->hw_device_ctx) av_buffer_unref(&e->ctx->hw_device_ctx);
		avcodec_free_context(&e->ctx);
	}
	free(e);
}
*/
import "C"

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"unsafe"

	"inkstream/internal/types"
)

// candidate is one (codec, backend name, device) combination the probe
// loop attempts to open, in preference order.
type candidate struct {
	codec   types.Codec
	ffName  string
	device  string
	preset  string
	rcMode  string
}

// HWEncoder is the cgo/FFmpeg-backed types.VideoEncoder. It runs the
// probe-and-select algorithm across codec x device combinations, adapted
// from an NVENC-only probe and
// original_source/.../vaapi_encoder.cpp (render-device enumeration).
type HWEncoder struct {
	enc          *C.hwEncoder
	cfg          types.EncoderConfig
	codec        types.Codec
	keyframeNext bool
	frameIndex   int
}

func NewHWEncoder() *HWEncoder { return &HWEncoder{} }

func renderDevices() []string {
	entries, err := filepath.Glob("/dev/dri/renderD*")
	if err != nil {
		return nil
	}
	sort.Strings(entries)
	return entries
}

func codecCandidates(pref types.CodecPreference) []types.Codec {
	switch pref {
	case types.PreferAV1:
		return []types.Codec{types.CodecAV1}
	case types.PreferHEVC:
		return []types.Codec{types.CodecHEVC}
	case types.PreferH264:
		return []types.Codec{types.CodecH264}
	default:
		return []types.Codec{types.CodecAV1, types.CodecHEVC, types.CodecH264}
	}
}

// vaapiPreset/nvencPreset/swPreset map the rate-control contract's four
// tiers onto each backend's own preset vocabulary: CBR_LOW_LATENCY wants
// the fastest preset available, CBR_BALANCED a middle ground,
// CQP_HIGH_QUALITY the slowest/highest-quality preset, and ADAPTIVE_CQP
// picks fast-vs-slow depending on the target framerate.
func vaapiPreset(rc types.RateControl, fps int) (preset, rcMode string) {
	switch rc {
	case types.RateCBRLowLatency:
		return "fast", "CBR"
	case types.RateCQPHighQuality:
		return "slow", "CQP"
	case types.RateAdaptiveCQP:
		if fps >= 50 {
			return "fast", "CQP"
		}
		return "slow", "CQP"
	default: // RateCBRBalanced
		return "medium", "CBR"
	}
}

func nvencPreset(rc types.RateControl, fps int) (preset, rcMode string) {
	switch rc {
	case types.RateCBRLowLatency:
		return "p1", "cbr"
	case types.RateCQPHighQuality:
		return "p6", "constqp"
	case types.RateAdaptiveCQP:
		if fps >= 50 {
			return "p3", "constqp"
		}
		return "p6", "constqp"
	default: // RateCBRBalanced
		return "p4", "cbr"
	}
}

func swPreset(rc types.RateControl, fps int) (preset, rcMode string) {
	switch rc {
	case types.RateCBRLowLatency:
		return "ultrafast", ""
	case types.RateCQPHighQuality:
		return "slow", ""
	case types.RateAdaptiveCQP:
		if fps >= 50 {
			return "faster", ""
		}
		return "slow", ""
	default: // RateCBRBalanced
		return "fast", ""
	}
}

func buildCandidates(cfg types.EncoderConfig) []candidate {
	var out []candidate
	devices := renderDevices()

	vaapiName := map[types.Codec]string{
		types.CodecAV1:  "av1_vaapi",
		types.CodecHEVC: "hevc_vaapi",
		types.CodecH264: "h264_vaapi",
	}
	nvencName := map[types.Codec]string{
		types.CodecAV1:  "av1_nvenc",
		types.CodecHEVC: "hevc_nvenc",
		types.CodecH264: "h264_nvenc",
	}
	swName := map[types.Codec]string{
		types.CodecHEVC: "libx265",
		types.CodecH264: "libx264",
	}

	vPreset, vRC := vaapiPreset(cfg.RateControl, cfg.Framerate)
	nPreset, nRC := nvencPreset(cfg.RateControl, cfg.Framerate)
	sPreset, sRC := swPreset(cfg.RateControl, cfg.Framerate)

	for _, c := range codecCandidates(cfg.CodecPreference) {
		for _, dev := range devices {
			out = append(out, candidate{codec: c, ffName: vaapiName[c], device: dev, preset: vPreset, rcMode: vRC})
		}
		// NVENC tried per GPU index 0..3, matching the original single-GPU
		// default generalized to "probe every index until one opens".
		for gpu := 0; gpu < 4; gpu++ {
			out = append(out, candidate{codec: c, ffName: nvencName[c], device: fmt.Sprint(gpu), preset: nPreset, rcMode: nRC})
		}
		if name, ok := swName[c]; ok {
			out = append(out, candidate{codec: c, ffName: name, preset: sPreset, rcMode: sRC})
		}
	}
	return out
}

func rateParams(cfg types.EncoderConfig) (bitrate, maxBitrate, bufferSize int64, cqp int) {
	bitrate = int64(cfg.BitrateBps)
	switch cfg.RateControl {
	case types.RateCBRLowLatency, types.RateCBRBalanced:
		maxBitrate = bitrate
		bufferSize = bitrate / int64(max(cfg.Framerate, 1))
	case types.RateCQPHighQuality, types.RateAdaptiveCQP:
		maxBitrate = bitrate * 2
		bufferSize = maxBitrate * int64(cfg.GOPSize) / int64(max(cfg.Framerate, 1))
		cqp = cfg.CQP
	}
	return
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (e *HWEncoder) Init(cfg types.EncoderConfig) error {
	e.cfg = cfg
	bitrate, maxBitrate, bufferSize, cqp := rateParams(cfg)

	var lastErr error
	for _, c := range buildCandidates(cfg) {
		cName := C.CString(c.ffName)
		cDevice := C.CString(c.device)
		cPreset := C.CString(c.preset)
		cRC := C.CString(c.rcMode)

		enc := C.hw_encoder_open(cName, cDevice, C.int(cfg.Width), C.int(cfg.Height),
			C.int(cfg.Framerate), C.int64_t(bitrate), C.int64_t(maxBitrate), C.int64_t(bufferSize),
			C.int(cfg.GOPSize), cPreset, cRC, C.int(cqp))

		C.free(unsafe.Pointer(cName))
		C.free(unsafe.Pointer(cDevice))
		C.free(unsafe.Pointer(cPreset))
		C.free(unsafe.Pointer(cRC))

		if enc == nil {
			lastErr = fmt.Errorf("open %s on %q failed", c.ffName, c.device)
			continue
		}
		e.enc = enc
		e.codec = c.codec
		log.Printf("video encoder: selected %s on %q", c.ffName, c.device)
		return nil
	}
	return types.NewError(types.ErrResourceUnavailable, "videoenc.Init",
		fmt.Errorf("no hardware encoder combination worked, last error: %v", lastErr))
}

func (e *HWEncoder) RequestKeyframe() { e.keyframeNext = true }
func (e *HWEncoder) ActualCodec() types.Codec { return e.codec }

func (e *HWEncoder) Encode(frame types.RawFrame) (*types.EncodedVideo, error) {
	nv12 := ColorConvertBGRAToNV12(frame.Data, frame.Width, frame.Height, frame.Stride)
	ySize := frame.Width * frame.Height
	y := nv12[:ySize]
	uv := nv12[ySize:]

	forceKey := 0
	// Keyframe policy: GOP boundary or a pending one-shot request.
	if e.cfg.GOPSize > 0 && e.frameIndex%e.cfg.GOPSize == 0 {
		forceKey = 1
	}
	if e.keyframeNext {
		forceKey = 1
		e.keyframeNext = false
	}
	e.frameIndex++

	var outBuf *C.uint8_t
	var outSize C.int
	var isKey C.int
	ret := C.hw_encoder_encode(e.enc,
		(*C.uint8_t)(unsafe.Pointer(&y[0])), (*C.uint8_t)(unsafe.Pointer(&uv[0])),
		C.int(frame.Width), C.int(frame.Width), C.int(forceKey),
		&outBuf, &outSize, &isKey)
	if ret != 0 {
		return nil, types.NewError(types.ErrEncode, "videoenc.Encode", fmt.Errorf("encoder rejected frame"))
	}
	if outSize == 0 {
		return nil, nil
	}

	data := C.GoBytes(unsafe.Pointer(outBuf), outSize)
	C.hw_encoder_unref(e.enc)

	return &types.EncodedVideo{
		Data:        data,
		IsKeyframe:  isKey != 0,
		TimestampUs: frame.TimestampUs,
	}, nil
}

func (e *HWEncoder) Close() {
	if e.enc != nil {
		C.hw_encoder_close(e.enc)
		e.enc = nil
	}
}
