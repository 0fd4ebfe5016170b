package grid

import "gonum.org/v1/gonum/dsp/fourier"

// fft2D performs an in-place 2D complex FFT on data (row-major, n x n),
// row pass first then column pass. When inverse is true the unnormalized
// inverse transform is applied; callers own the 1/N^2 scaling.
func fft2D(data []complex128, n int, inverse bool) {
	fft := fourier.NewCmplxFFT(n)

	row := make([]complex128, n)
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		copy(row, data[i*n:(i+1)*n])
		if inverse {
			fft.Sequence(out, row)
		} else {
			fft.Coefficients(out, row)
		}
		copy(data[i*n:(i+1)*n], out)
	}

	col := make([]complex128, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			col[i] = data[i*n+j]
		}
		if inverse {
			fft.Sequence(out, col)
		} else {
			fft.Coefficients(out, col)
		}
		for i := 0; i < n; i++ {
			data[i*n+j] = out[i]
		}
	}
}
