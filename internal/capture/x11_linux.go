//go:build linux

// Package capture implements the VideoCapture collaborator. The Linux
// backend is X11/XShm with XFixes cursor compositing; a synthetic backend
// in synthetic.go satisfies the same interface for tests and non-Linux
// builds.
package capture

/*
#cgo pkg-config: x11 xext xfixes xdamage
#include <X11/Xlib.h>
#include <X11/Xutil.h>
#include <X11/extensions/XShm.h>
#include <X11/extensions/Xfixes.h>
#include <X11/extensions/Xdamage.h>
#include <sys/ipc.h>
#include <sys/shm.h>
#include <stdlib.h>
#include <string.h>

typedef struct {
	Display *display;
	Window root;
	XShmSegmentInfo shminfo;
	XImage *image;
	int width;
	int height;
	int damage_event_base;
	Damage damage;
	int has_damage;
	int pending_damage;
} x11Capturer;

static x11Capturer* x11_init(const char *display_name) {
	x11Capturer *c = (x11Capturer*)calloc(1, sizeof(x11Capturer));
	if (!c) return NULL;

	c->display = XOpenDisplay(display_name);
	if (!c->display) { free(c); return NULL; }

	int screen = DefaultScreen(c->display);
	c->root = RootWindow(c->display, screen);
	c->width = DisplayWidth(c->display, screen);
	c->height = DisplayHeight(c->display, screen);

	c->image = XShmCreateImage(c->display,
		DefaultVisual(c->display, screen),
		DefaultDepth(c->display, screen),
		ZPixmap, NULL, &c->shminfo,
		c->width, c->height);
	if (!c->image) { XCloseDisplay(c->display); free(c); return NULL; }

	c->shminfo.shmid = shmget(IPC_PRIVATE,
		c->image->bytes_per_line * c->image->height, IPC_CREAT | 0600);
	if (c->shminfo.shmid < 0) {
		XDestroyImage(c->image); XCloseDisplay(c->display); free(c); return NULL;
	}

	c->shminfo.shmaddr = c->image->data = (char*)shmat(c->shminfo.shmid, NULL, 0);
	c->shminfo.readOnly = False;

	if (!XShmAttach(c->display, &c->shminfo)) {
		shmdt(c->shminfo.shmaddr);
		shmctl(c->shminfo.shmid, IPC_RMID, NULL);
		XDestroyImage(c->image); XCloseDisplay(c->display); free(c); return NULL;
	}
	shmctl(c->shminfo.shmid, IPC_RMID, NULL);

	// XDamage reports per-region changes; if unavailable, the capturer
	// still works but PendingChangeCount() reports unsupported (-1).
	int damage_error_base;
	if (XDamageQueryExtension(c->display, &c->damage_event_base, &damage_error_base)) {
		c->damage = XDamageCreate(c->display, c->root, XDamageReportRawRectangles);
		c->has_damage = 1;
	}

	return c;
}

static int x11_grab(x11Capturer *c) {
	if (!XShmGetImage(c->display, c->root, c->image, 0, 0, AllPlanes)) return -1;
	return 0;
}

static void x11_composite_cursor(x11Capturer *c) {
	XFixesCursorImage *cursor = XFixesGetCursorImage(c->display);
	if (!cursor) return;

	int cx = cursor->x - cursor->xhot;
	int cy = cursor->y - cursor->yhot;

	for (int y = 0; y < (int)cursor->height; y++) {
		int dy = cy + y;
		if (dy < 0 || dy >= c->height) continue;
		for (int x = 0; x < (int)cursor->width; x++) {
			int dx = cx + x;
			if (dx < 0 || dx >= c->width) continue;

			unsigned long pixel = cursor->pixels[y * cursor->width + x];
			unsigned char a = (pixel >> 24) & 0xFF;
			if (a == 0) continue;

			unsigned char cr = (pixel >> 0) & 0xFF;
			unsigned char cg = (pixel >> 8) & 0xFF;
			unsigned char cb = (pixel >> 16) & 0xFF;

			int offset = dy * c->image->bytes_per_line + dx * 4;
			unsigned char *dst = (unsigned char*)c->image->data + offset;
			if (a == 255) {
				dst[0] = cb; dst[1] = cg; dst[2] = cr;
			} else {
				dst[0] = (cb * a + dst[0] * (255 - a)) / 255;
				dst[1] = (cg * a + dst[1] * (255 - a)) / 255;
				dst[2] = (cr * a + dst[2] * (255 - a)) / 255;
			}
		}
	}
	XFree(cursor);
}

static int x11_pending_change_count(x11Capturer *c) {
	if (!c->has_damage) return -1;
	int count = 0;
	while (XPending(c->display) > 0) {
		XEvent ev;
		XNextEvent(c->display, &ev);
		if (ev.type == c->damage_event_base + XDamageNotify) count++;
	}
	if (c->damage) XDamageSubtract(c->display, c->damage, None, None);
	return count;
}

static void x11_destroy(x11Capturer *c) {
	if (!c) return;
	if (c->damage) XDamageDestroy(c->display, c->damage);
	XShmDetach(c->display, &c->shminfo);
	shmdt(c->shminfo.shmaddr);
	XDestroyImage(c->image);
	XCloseDisplay(c->display);
	free(c);
}
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"inkstream/internal/types"
)

// X11Capture is the XShm+XFixes screen capturer.
type X11Capture struct {
	c *C.x11Capturer
}

func NewX11Capture() *X11Capture { return &X11Capture{} }

func (x *X11Capture) Init(displayHint string) (int, int, error) {
	cDisplay := C.CString(displayHint)
	defer C.free(unsafe.Pointer(cDisplay))

	c := C.x11_init(cDisplay)
	if c == nil {
		return 0, 0, types.NewError(types.ErrResourceUnavailable, "capture.Init",
			fmt.Errorf("failed to open X11 display %q", displayHint))
	}
	x.c = c
	return int(c.width), int(c.height), nil
}

func (x *X11Capture) CaptureFrame() (types.RawFrame, error) {
	if C.x11_grab(x.c) != 0 {
		return types.RawFrame{}, types.NewError(types.ErrCapture, "capture.CaptureFrame", fmt.Errorf("XShmGetImage failed"))
	}
	C.x11_composite_cursor(x.c)

	size := int(x.c.image.bytes_per_line) * int(x.c.height)
	data := unsafe.Slice((*byte)(unsafe.Pointer(x.c.image.data)), size)

	return types.RawFrame{
		Data:        data,
		Width:       int(x.c.width),
		Height:      int(x.c.height),
		Stride:      int(x.c.image.bytes_per_line),
		TimestampUs: time.Now().UnixMicro(),
	}, nil
}

func (x *X11Capture) PendingChangeCount() int {
	return int(C.x11_pending_change_count(x.c))
}

func (x *X11Capture) Shutdown() {
	C.x11_destroy(x.c)
	x.c = nil
}
