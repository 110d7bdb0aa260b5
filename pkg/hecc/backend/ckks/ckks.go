// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ckks

import (
	"fmt"
	"math"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
	log "github.com/sirupsen/logrus"
)

// DefaultParameters supports circuits of multiplicative depth three over 4096
// slots, with a scaling factor of 2^{40}.
var DefaultParameters = ckks.ParametersLiteral{
	LogN:            13,
	LogQ:            []int{50, 40, 40, 40},
	LogP:            []int{45},
	LogDefaultScale: 40,
}

// Tolerance is the absolute error below which two decrypted values are
// considered equal.
const Tolerance = 1e-4

// Backend is an approximate-arithmetic scheme over real numbers, built on the
// CKKS implementation of lattigo.  The backend holds every key, including the
// secret key, and generates rotation keys on demand.  Relational operators are
// not supported.
type Backend struct {
	params    ckks.Parameters
	kgen      *rlwe.KeyGenerator
	sk        *rlwe.SecretKey
	rlk       *rlwe.RelinearizationKey
	encoder   *ckks.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *ckks.Evaluator
	// Rotation keys generated so far, indexed by Galois element.
	galois map[uint64]*rlwe.GaloisKey
}

// Ciphertext is a ciphertext of the CKKS backend.
type Ciphertext struct {
	backend *Backend
	ct      *rlwe.Ciphertext
}

// Plaintext is a plaintext of the CKKS backend.  Values are encoded by the
// evaluator at the level and scale of the ciphertext they are combined with.
type Plaintext struct {
	values []float64
}

// New constructs a CKKS backend from the given parameters, generating a fresh
// set of keys.
func New(literal ckks.ParametersLiteral) (*Backend, error) {
	params, err := ckks.NewParametersFromLiteral(literal)
	if err != nil {
		return nil, err
	}
	//
	var (
		kgen = rlwe.NewKeyGenerator(params)
		sk   = kgen.GenSecretKeyNew()
		pk   = kgen.GenPublicKeyNew(sk)
		rlk  = kgen.GenRelinearizationKeyNew(sk)
	)
	//
	log.Debugf("ckks parameters: logN=%d, slots=%d, depth=%d", params.LogN(), params.MaxSlots(), params.MaxLevel())
	//
	return &Backend{
		params:    params,
		kgen:      kgen,
		sk:        sk,
		rlk:       rlk,
		encoder:   ckks.NewEncoder(params),
		encryptor: rlwe.NewEncryptor(params, pk),
		decryptor: rlwe.NewDecryptor(params, sk),
		evaluator: ckks.NewEvaluator(params, rlwe.NewMemEvaluationKeySet(rlk)),
		galois:    make(map[uint64]*rlwe.GaloisKey),
	}, nil
}

// Name implementation for the backend.Backend interface.
func (p *Backend) Name() string {
	return "ckks"
}

// Slots implementation for the backend.Backend interface.
func (p *Backend) Slots() uint {
	return uint(p.params.MaxSlots())
}

// Encode implementation for the backend.Backend interface.
func (p *Backend) Encode(values []float64) (backend.Plaintext, error) {
	padded, err := backend.Pad(values, p.Slots())
	if err != nil {
		return nil, err
	}
	//
	return &Plaintext{padded}, nil
}

// Encrypt implementation for the backend.Backend interface.
func (p *Backend) Encrypt(values []float64) (backend.Ciphertext, error) {
	padded, err := backend.Pad(values, p.Slots())
	if err != nil {
		return nil, err
	}
	//
	pt := ckks.NewPlaintext(p.params, p.params.MaxLevel())
	//
	if err := p.encoder.Encode(padded, pt); err != nil {
		return nil, err
	}
	//
	ct, err := p.encryptor.EncryptNew(pt)
	if err != nil {
		return nil, err
	}
	//
	return &Ciphertext{p, ct}, nil
}

// Decrypt implementation for the backend.Backend interface.
func (p *Backend) Decrypt(ct backend.Ciphertext) ([]float64, error) {
	c, err := p.cast(ct)
	if err != nil {
		return nil, err
	}
	//
	values := make([]float64, p.Slots())
	//
	if err := p.encoder.Decode(p.decryptor.DecryptNew(c.ct), values); err != nil {
		return nil, err
	}
	//
	return values, nil
}

// Ensure the evaluator holds the key for a given rotation.
func (p *Backend) rotationKey(k int) {
	galEl := p.params.GaloisElement(k)
	//
	if _, ok := p.galois[galEl]; ok {
		return
	}
	//
	p.galois[galEl] = p.kgen.GenGaloisKeyNew(galEl, p.sk)
	//
	keys := make([]*rlwe.GaloisKey, 0, len(p.galois))
	//
	for _, key := range p.galois {
		keys = append(keys, key)
	}
	//
	p.evaluator = p.evaluator.WithKey(rlwe.NewMemEvaluationKeySet(p.rlk, keys...))
}

func (p *Backend) cast(ct backend.Ciphertext) (*Ciphertext, error) {
	if c, ok := ct.(*Ciphertext); ok && c.backend == p {
		return c, nil
	}
	//
	return nil, fmt.Errorf("ciphertext of foreign backend (%T)", ct)
}

// Size implementation for the backend.Plaintext interface.
func (p *Plaintext) Size() uint {
	return uint(len(p.values))
}

// Values implementation for the backend.Plaintext interface.
func (p *Plaintext) Values() []float64 {
	return p.values
}

// ============================================================================
// Ciphertext
// ============================================================================

// Add implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Add(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.AddInPlace(other) })
}

// AddInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddInPlace(other backend.Ciphertext) error {
	c, err := p.backend.cast(other)
	if err != nil {
		return err
	}
	//
	return p.backend.evaluator.Add(p.ct, c.ct, p.ct)
}

// AddPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.AddPlainInPlace(other) })
}

// AddPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlainInPlace(other backend.Plaintext) error {
	return p.backend.evaluator.Add(p.ct, other.Values(), p.ct)
}

// Sub implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Sub(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubInPlace(other) })
}

// SubInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubInPlace(other backend.Ciphertext) error {
	c, err := p.backend.cast(other)
	if err != nil {
		return err
	}
	//
	return p.backend.evaluator.Sub(p.ct, c.ct, p.ct)
}

// SubPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubPlainInPlace(other) })
}

// SubPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlainInPlace(other backend.Plaintext) error {
	return p.backend.evaluator.Sub(p.ct, other.Values(), p.ct)
}

// Mul implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Mul(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulInPlace(other) })
}

// MulInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulInPlace(other backend.Ciphertext) error {
	c, err := p.backend.cast(other)
	if err != nil {
		return err
	}
	//
	return p.multiply(c.ct)
}

// MulPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulPlainInPlace(other) })
}

// MulPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlainInPlace(other backend.Plaintext) error {
	return p.multiply(other.Values())
}

// Negate implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Negate() (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.NegateInPlace() })
}

// NegateInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) NegateInPlace() error {
	// Integer constants leave the scale untouched
	return p.backend.evaluator.Mul(p.ct, -1, p.ct)
}

// Rotate implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Rotate(k int) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.RotateInPlace(k) })
}

// RotateInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) RotateInPlace(k int) error {
	var slots = int(p.backend.Slots())
	//
	if k = ((k % slots) + slots) % slots; k == 0 {
		return nil
	}
	//
	p.backend.rotationKey(k)
	//
	rotated, err := p.backend.evaluator.RotateNew(p.ct, k)
	if err != nil {
		return err
	}
	//
	p.ct = rotated
	//
	return nil
}

// Equal implementation for the backend.Ciphertext interface.  Since values are
// approximate, ciphertexts are equal when their decryptions agree within the
// tolerance.
func (p *Ciphertext) Equal(other backend.Ciphertext) bool {
	lhs, err1 := p.backend.Decrypt(p)
	rhs, err2 := p.backend.Decrypt(other)
	//
	if err1 != nil || err2 != nil {
		return false
	}
	//
	return slices.EqualFunc(lhs, rhs, func(x, y float64) bool { return math.Abs(x-y) < Tolerance })
}

// Size implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Size() uint {
	return p.backend.Slots()
}

// Clone implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Clone() backend.Ciphertext {
	return &Ciphertext{p.backend, p.ct.CopyNew()}
}

// Level returns the number of multiplications this ciphertext can still
// undergo.
func (p *Ciphertext) Level() int {
	return p.ct.Level()
}

func (p *Ciphertext) multiply(operand any) error {
	var eval = p.backend.evaluator
	//
	if p.ct.Level() == 0 {
		return fmt.Errorf("multiplicative depth of parameters exhausted")
	} else if err := eval.MulRelin(p.ct, operand, p.ct); err != nil {
		return err
	}
	//
	return eval.Rescale(p.ct, p.ct)
}

func (p *Ciphertext) fresh(fn func(*Ciphertext) error) (backend.Ciphertext, error) {
	c := p.Clone().(*Ciphertext)
	//
	if err := fn(c); err != nil {
		return nil, err
	}
	//
	return c, nil
}
