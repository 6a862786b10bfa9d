package dsp

// Length-8 DCT-II/DCT-III pair, radix-8 real factorization with closed-form
// cosine constants (fftw-3.3.9 e10_8/e01_8 subroutines). The pair is
// normalized and scaled so that idct8(fdct8(x)) = 16*x; over the separable
// 3D transform the round trip multiplies by 16^3 = 4096, which shrinkage
// compensates with groupScale.

const (
	kp414213562  = 0.414213562373095048801688724209698078569671875  // tan(pi/8)
	kp1847759065 = 1.847759065022573512256366378793576573644833252  // 2*cos(pi/8)
	kp198912367  = 0.198912367379658006911597622644676228597850501  // tan(pi/16)
	kp1961570560 = 1.961570560806460898252364472268478073947867462  // 2*cos(pi/16)
	kp1414213562 = 1.414213562373095048801688724209698078569671875  // sqrt(2)
	kp668178637  = 0.668178637919298919997757686523080761552472251  // tan(3*pi/16)
	kp1662939224 = 1.662939224605090474157576755235811513477121624  // 2*cos(3*pi/16)
	kp707106781  = 0.707106781186547524400844362104849039284835938  // 1/sqrt(2)
)

// fdct8 is the forward transform (DCT-II) down the rows of b, one lane at a
// time.
func fdct8(b *Block) {
	for l := 0; l < 8; l++ {
		t1 := b[0][l]
		t2 := b[7][l]
		t3 := t1 - t2
		tj := t1 + t2
		tc := b[4][l]
		td := b[3][l]
		te := tc - td
		tk := tc + td
		t4 := b[2][l]
		t5 := b[5][l]
		t6 := t4 - t5
		t7 := b[1][l]
		t8 := b[6][l]
		t9 := t7 - t8
		ta := t6 + t9
		tn := t7 + t8
		tf := t6 - t9
		tm := t4 + t5
		tb := t3 - kp707106781*ta
		tg := te - kp707106781*tf
		b[3][l] = kp1662939224 * (tb + kp668178637*tg)
		b[5][l] = -(kp1662939224 * (tg - kp668178637*tb))
		tp := tj + tk
		tq := tm + tn
		b[4][l] = kp1414213562 * (tp - tq)
		b[0][l] = kp1414213562 * (tp + tq)
		th := t3 + kp707106781*ta
		ti := te + kp707106781*tf
		b[1][l] = kp1961570560 * (th - kp198912367*ti)
		b[7][l] = kp1961570560 * (ti + kp198912367*th)
		tl := tj - tk
		to := tm - tn
		b[2][l] = kp1847759065 * (tl - kp414213562*to)
		b[6][l] = kp1847759065 * (to + kp414213562*tl)
	}
}

// idct8 is the inverse transform (DCT-III) matching fdct8.
func idct8(b *Block) {
	for l := 0; l < 8; l++ {
		t1 := kp1414213562 * b[0][l]
		t2 := b[4][l]
		t3 := t1 + kp1414213562*t2
		tj := t1 - kp1414213562*t2
		t4 := b[2][l]
		t5 := b[6][l]
		t6 := t4 + kp414213562*t5
		tk := kp414213562*t4 - t5
		t8 := b[1][l]
		td := b[7][l]
		t9 := b[5][l]
		ta := b[3][l]
		tb := t9 + ta
		te := ta - t9
		tc := t8 + kp707106781*tb
		tn := td - kp707106781*te
		tf := td + kp707106781*te
		tm := t8 - kp707106781*tb
		t7 := t3 + kp1847759065*t6
		tg := tc + kp198912367*tf
		b[7][l] = t7 - kp1961570560*tg
		b[0][l] = t7 + kp1961570560*tg
		tp := tj - kp1847759065*tk
		tq := tn + kp668178637*tm
		b[5][l] = tp - kp1662939224*tq
		b[2][l] = tp + kp1662939224*tq
		th := t3 - kp1847759065*t6
		ti := tf - kp198912367*tc
		b[3][l] = th - kp1961570560*ti
		b[4][l] = th + kp1961570560*ti
		tl := tj + kp1847759065*tk
		to := tm - kp668178637*tn
		b[6][l] = tl - kp1662939224*to
		b[1][l] = tl + kp1662939224*to
	}
}

// transpose8 transposes an 8x8 block in place.
func transpose8(b *Block) {
	for i := 0; i < 8; i++ {
		for j := i + 1; j < 8; j++ {
			b[i][j], b[j][i] = b[j][i], b[i][j]
		}
	}
}
