package imaging

import (
	"image"
	"math"
)

// Edges runs Canny edge detection and returns a mask where edge pixels are
// 255 and everything else is 0. The output has the bounds of img.
//
// thresholdLow and thresholdHigh are hysteresis thresholds on the 0-255
// scale: gradients above thresholdHigh are strong edges, gradients between
// the two are kept only next to a strong edge.
//
// # Algorithm
//
//  1. Grayscale conversion with ITU-R BT.601 weights
//     (0.299*R + 0.587*G + 0.114*B). *image.Gray input is read directly.
//
//  2. Gaussian blur: 5x5 kernel to reduce noise
//
//  3. Sobel gradients: magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//
//  4. Non-maximum suppression thins edges to one pixel along the gradient
//
//  5. Hysteresis thresholding against thresholdLow and thresholdHigh
func Edges(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	result := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return result
	}

	blurred := gaussianBlur(luminance(img), width, height)
	magnitude, direction := sobel(blurred, width, height)
	suppressed := suppressNonMaxima(magnitude, direction, width, height)

	low := float64(thresholdLow) / 255.0
	high := float64(thresholdHigh) / 255.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y][x]
			if val >= high || (val >= low && hasStrongNeighbor(suppressed, x, y, width, height, high)) {
				result.Pix[y*result.Stride+x] = 255
			}
		}
	}
	return result
}

// luminance converts img to a [0,1] grayscale matrix indexed [y][x].
func luminance(img image.Image) [][]float64 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := make([][]float64, height)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			gray[y] = make([]float64, width)
			row := g.Pix[y*g.Stride : y*g.Stride+width]
			for x, v := range row {
				gray[y][x] = float64(v) / 255.0
			}
		}
		return gray
	}

	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			gray[y][x] = (0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)) / 255.0
		}
	}
	return gray
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// sobel returns gradient magnitude and direction per pixel. Borders use
// clamped neighbors.
func sobel(gray [][]float64, width, height int) (magnitude, direction [][]float64) {
	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := gray[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Hypot(gx, gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppressNonMaxima keeps a magnitude only when it is a local maximum along
// its gradient direction. The one pixel border is always suppressed.
func suppressNonMaxima(magnitude, direction [][]float64, width, height int) [][]float64 {
	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			angle := direction[y][x]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[y][x-1], magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[y-1][x+1], magnitude[y+1][x-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[y-1][x], magnitude[y+1][x]
			default:
				n1, n2 = magnitude[y-1][x-1], magnitude[y+1][x+1]
			}
			if mag := magnitude[y][x]; mag >= n1 && mag >= n2 {
				out[y][x] = mag
			}
		}
	}
	return out
}

func hasStrongNeighbor(suppressed [][]float64, x, y, width, height int, high float64) bool {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			if suppressed[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)] >= high {
				return true
			}
		}
	}
	return false
}

// gaussianBlur applies a 5x5 Gaussian blur (sigma ≈ 1.4):
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// normalized by the kernel sum 273. Border pixels use clamped values.
func gaussianBlur(img [][]float64, width, height int) [][]float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				for kx := -2; kx <= 2; kx++ {
					sum += img[clamp(y+ky, 0, height-1)][clamp(x+kx, 0, width-1)] * kernel[ky+2][kx+2]
				}
			}
			result[y][x] = sum / kernelSum
		}
	}
	return result
}

// clamp constrains val to [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
