package cryptography

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/logger"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/pkcs1"

	"github.com/miekg/pkcs11"
)

// sha256DigestInfo is the DER DigestInfo prefix for a SHA-256 hash (RFC 8017, section 9.2).
var sha256DigestInfo = []byte{0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20}

// pkcs11Key is the keypair.Handle of the PKCS#11 backend.
type pkcs11Key struct {
	object   pkcs11.ObjectHandle
	private  bool
	modulus  []byte
	exponent []byte
	size     int
}

func (k *pkcs11Key) BlockSize() int {
	return k.size
}

func newPKCS11Key(object pkcs11.ObjectHandle, private bool, modulus, exponent []byte) *pkcs11Key {
	bits := new(big.Int).SetBytes(modulus).BitLen()
	return &pkcs11Key{
		object:   object,
		private:  private,
		modulus:  append([]byte(nil), modulus...),
		exponent: append([]byte(nil), exponent...),
		size:     (bits + 7) / 8,
	}
}

// PKCS11Backend implements keypair.Backend on a PKCS#11 token such as SoftHSM.
// Keys are created as session objects and disappear when the backend is closed.
// All token calls go through a single logged-in session and are serialized.
type PKCS11Backend struct {
	mu      sync.Mutex
	ctx     *pkcs11.Ctx
	slot    uint
	session pkcs11.SessionHandle
	logger  logger.Logger
}

// NewPKCS11Backend loads the module, opens a read-write session on the configured slot and logs in as user.
func NewPKCS11Backend(settings *config.PKCS11Settings, logger logger.Logger) (*PKCS11Backend, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate settings: %w", err)
	}

	slotID, err := strconv.ParseUint(settings.SlotID, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid slot id %q: %w", settings.SlotID, err)
	}

	ctx := pkcs11.New(settings.ModulePath)
	if ctx == nil {
		return nil, fmt.Errorf("failed to load PKCS#11 module %s", settings.ModulePath)
	}

	b := &PKCS11Backend{ctx: ctx, slot: uint(slotID), logger: logger}
	if err := b.open(settings); err != nil {
		ctx.Destroy()
		return nil, err
	}

	logger.Info("Opened PKCS#11 session on slot ", b.slot)
	return b, nil
}

func (b *PKCS11Backend) open(settings *config.PKCS11Settings) error {
	if err := b.ctx.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PKCS#11 module: %w", err)
	}

	slots, err := b.ctx.GetSlotList(true)
	if err != nil {
		_ = b.ctx.Finalize()
		return fmt.Errorf("failed to list slots: %w", err)
	}

	found := false
	for _, s := range slots {
		if s == b.slot {
			found = true
			break
		}
	}
	if !found {
		_ = b.ctx.Finalize()
		return fmt.Errorf("slot %d not found or has no token", b.slot)
	}

	if settings.TokenLabel != "" {
		info, err := b.ctx.GetTokenInfo(b.slot)
		if err != nil {
			_ = b.ctx.Finalize()
			return fmt.Errorf("failed to read token info: %w", err)
		}
		if info.Label != settings.TokenLabel {
			_ = b.ctx.Finalize()
			return fmt.Errorf("slot %d holds token %q, want %q", b.slot, info.Label, settings.TokenLabel)
		}
	}

	session, err := b.ctx.OpenSession(b.slot, pkcs11.CKF_SERIAL_SESSION|pkcs11.CKF_RW_SESSION)
	if err != nil {
		_ = b.ctx.Finalize()
		return fmt.Errorf("failed to open session: %w", err)
	}

	if err := b.ctx.Login(session, pkcs11.CKU_USER, settings.UserPin); err != nil {
		_ = b.ctx.CloseSession(session)
		_ = b.ctx.Finalize()
		return fmt.Errorf("failed to log in: %w", err)
	}

	b.session = session
	return nil
}

// Close logs out, closes the session and unloads the module.
func (b *PKCS11Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := errors.Join(
		b.ctx.Logout(b.session),
		b.ctx.CloseSession(b.session),
		b.ctx.Finalize(),
	)
	b.ctx.Destroy()

	if err != nil {
		return fmt.Errorf("failed to close PKCS#11 backend: %w", err)
	}
	b.logger.Info("Closed PKCS#11 session on slot ", b.slot)
	return nil
}

// Generate generates an RSA key pair on the token.
func (b *PKCS11Backend) Generate(keySizeBits int) (keypair.Handle, keypair.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pubTemplate := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_RSA),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, false),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_ENCRYPT, true),
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS_BITS, keySizeBits),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, []byte{1, 0, 1}),
	}
	privTemplate := privateKeyTemplate()

	pubObject, privObject, err := b.ctx.GenerateKeyPair(b.session,
		[]*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_KEY_PAIR_GEN, nil)},
		pubTemplate, privTemplate)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	attrs, err := b.ctx.GetAttributeValue(b.session, pubObject, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, nil),
	})
	if err != nil {
		b.destroyObjects(pubObject, privObject)
		return nil, nil, fmt.Errorf("failed to get public key attributes: %w", err)
	}

	modulus, exponent := attrs[0].Value, attrs[1].Value
	b.logger.Debug("Generated RSA key pair of ", keySizeBits, " bits on slot ", b.slot)
	return newPKCS11Key(privObject, true, modulus, exponent), newPKCS11Key(pubObject, false, modulus, exponent), nil
}

// privateKeyTemplate describes an extractable session private key so that Export can read its components.
func privateKeyTemplate() []*pkcs11.Attribute {
	return []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PRIVATE_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_RSA),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, false),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SENSITIVE, false),
		pkcs11.NewAttribute(pkcs11.CKA_EXTRACTABLE, true),
		pkcs11.NewAttribute(pkcs11.CKA_SIGN, true),
		pkcs11.NewAttribute(pkcs11.CKA_DECRYPT, true),
		pkcs11.NewAttribute(pkcs11.CKA_UNWRAP, false),
	}
}

// ImportPrivate creates a private key object from PKCS#1 DER.
func (b *PKCS11Backend) ImportPrivate(der []byte) (keypair.Handle, error) {
	decoded, err := pkcs1.DecodePrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	template := append(privateKeyTemplate(),
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, decoded.Modulus),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, decoded.PublicExponent),
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE_EXPONENT, decoded.PrivateExponent),
		pkcs11.NewAttribute(pkcs11.CKA_PRIME_1, decoded.Prime1),
		pkcs11.NewAttribute(pkcs11.CKA_PRIME_2, decoded.Prime2),
		pkcs11.NewAttribute(pkcs11.CKA_EXPONENT_1, decoded.Exponent1),
		pkcs11.NewAttribute(pkcs11.CKA_EXPONENT_2, decoded.Exponent2),
		pkcs11.NewAttribute(pkcs11.CKA_COEFFICIENT, decoded.Coefficient),
	)

	b.mu.Lock()
	defer b.mu.Unlock()

	object, err := b.ctx.CreateObject(b.session, template)
	if err != nil {
		return nil, fmt.Errorf("failed to create private key object: %w", err)
	}
	return newPKCS11Key(object, true, decoded.Modulus, decoded.PublicExponent), nil
}

// DerivePublic creates a public key object matching a private key handle.
func (b *PKCS11Backend) DerivePublic(private keypair.Handle) (keypair.Handle, error) {
	key, err := asPKCS11Key(private)
	if err != nil {
		return nil, err
	}
	if !key.private {
		return nil, errors.New("handle holds no private key")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.createPublicObject(key.modulus, key.exponent)
}

// ImportPublic creates a public key object from PKCS#1 DER.
func (b *PKCS11Backend) ImportPublic(der []byte) (keypair.Handle, error) {
	decoded, err := pkcs1.DecodePublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.createPublicObject(decoded.Modulus, decoded.PublicExponent)
}

func (b *PKCS11Backend) createPublicObject(modulus, exponent []byte) (*pkcs11Key, error) {
	object, err := b.ctx.CreateObject(b.session, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, pkcs11.CKO_PUBLIC_KEY),
		pkcs11.NewAttribute(pkcs11.CKA_KEY_TYPE, pkcs11.CKK_RSA),
		pkcs11.NewAttribute(pkcs11.CKA_TOKEN, false),
		pkcs11.NewAttribute(pkcs11.CKA_VERIFY, true),
		pkcs11.NewAttribute(pkcs11.CKA_ENCRYPT, true),
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, modulus),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, exponent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create public key object: %w", err)
	}
	return newPKCS11Key(object, false, modulus, exponent), nil
}

// Export reads the key components from the token and encodes them as PKCS#1 DER.
func (b *PKCS11Backend) Export(h keypair.Handle) ([]byte, error) {
	key, err := asPKCS11Key(h)
	if err != nil {
		return nil, err
	}
	if !key.private {
		return pkcs1.EncodePublicKey(&pkcs1.PublicKey{Modulus: key.modulus, PublicExponent: key.exponent})
	}

	b.mu.Lock()
	attrs, err := b.ctx.GetAttributeValue(b.session, key.object, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_PRIVATE_EXPONENT, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PRIME_1, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PRIME_2, nil),
		pkcs11.NewAttribute(pkcs11.CKA_EXPONENT_1, nil),
		pkcs11.NewAttribute(pkcs11.CKA_EXPONENT_2, nil),
		pkcs11.NewAttribute(pkcs11.CKA_COEFFICIENT, nil),
	})
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read private key attributes: %w", err)
	}
	defer func() {
		for _, a := range attrs {
			clear(a.Value)
		}
	}()

	return pkcs1.EncodePrivateKey(&pkcs1.PrivateKey{
		Modulus:         key.modulus,
		PublicExponent:  key.exponent,
		PrivateExponent: attrs[0].Value,
		Prime1:          attrs[1].Value,
		Prime2:          attrs[2].Value,
		Exponent1:       attrs[3].Value,
		Exponent2:       attrs[4].Value,
		Coefficient:     attrs[5].Value,
	})
}

// IsAlgorithmSupported asks the token whether the mechanism behind alg allows op for the key size of h.
func (b *PKCS11Backend) IsAlgorithmSupported(h keypair.Handle, op keypair.OperationKind, alg keypair.Algorithm) bool {
	key, err := asPKCS11Key(h)
	if err != nil {
		return false
	}
	if (op == keypair.OperationDecrypt || op == keypair.OperationSign) && !key.private {
		return false
	}

	var mechanism uint
	var flag uint
	switch alg := alg.(type) {
	case keypair.EncryptionAlgorithm:
		mech, err := encryptionMechanism(alg)
		if err != nil {
			return false
		}
		mechanism = mech.Mechanism
		switch op {
		case keypair.OperationEncrypt:
			flag = pkcs11.CKF_ENCRYPT
		case keypair.OperationDecrypt:
			flag = pkcs11.CKF_DECRYPT
		default:
			return false
		}
		if alg == keypair.EncryptionOAEPSHA512 && key.size < 2*64+2 {
			return false
		}
	case keypair.SigningAlgorithm:
		mech, err := signingMechanism(alg)
		if err != nil {
			return false
		}
		mechanism = mech.Mechanism
		switch op {
		case keypair.OperationSign:
			flag = pkcs11.CKF_SIGN
		case keypair.OperationVerify:
			flag = pkcs11.CKF_VERIFY
		default:
			return false
		}
	default:
		return false
	}

	b.mu.Lock()
	info, err := b.ctx.GetMechanismInfo(b.slot, []*pkcs11.Mechanism{pkcs11.NewMechanism(mechanism, nil)})
	b.mu.Unlock()
	if err != nil {
		b.logger.Debug("Mechanism ", alg, " unavailable on slot ", b.slot, ": ", err)
		return false
	}

	bits := uint(key.size * 8)
	if info.MinKeySize != 0 && bits < info.MinKeySize {
		return false
	}
	if info.MaxKeySize != 0 && bits > info.MaxKeySize {
		return false
	}
	return info.Flags&flag != 0
}

func encryptionMechanism(alg keypair.EncryptionAlgorithm) (*pkcs11.Mechanism, error) {
	switch alg {
	case keypair.EncryptionPKCS1v15:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil), nil
	case keypair.EncryptionOAEPSHA256:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_OAEP,
			pkcs11.NewOAEPParams(pkcs11.CKM_SHA256, pkcs11.CKG_MGF1_SHA256, pkcs11.CKZ_DATA_SPECIFIED, nil)), nil
	case keypair.EncryptionOAEPSHA512:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_OAEP,
			pkcs11.NewOAEPParams(pkcs11.CKM_SHA512, pkcs11.CKG_MGF1_SHA512, pkcs11.CKZ_DATA_SPECIFIED, nil)), nil
	default:
		return nil, fmt.Errorf("unknown encryption algorithm %v", alg)
	}
}

func signingMechanism(alg keypair.SigningAlgorithm) (*pkcs11.Mechanism, error) {
	switch alg {
	case keypair.SigningPKCS1v15SHA256:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil), nil
	case keypair.SigningPSSSHA256:
		return pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS_PSS,
			pkcs11.NewPSSParams(pkcs11.CKM_SHA256, pkcs11.CKG_MGF1_SHA256, 32)), nil
	default:
		return nil, fmt.Errorf("unknown signing algorithm %v", alg)
	}
}

// signingInput prepares a SHA-256 digest for the raw mechanism behind alg.
func signingInput(alg keypair.SigningAlgorithm, digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("expected a 32 byte SHA-256 digest, got %d bytes", len(digest))
	}
	if alg == keypair.SigningPKCS1v15SHA256 {
		return append(append([]byte(nil), sha256DigestInfo...), digest...), nil
	}
	return digest, nil
}

// Encrypt encrypts plaintext with the public key object behind h.
func (b *PKCS11Backend) Encrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, plaintext []byte) ([]byte, error) {
	key, err := asPKCS11Key(h)
	if err != nil {
		return nil, err
	}
	mech, err := encryptionMechanism(alg)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ctx.EncryptInit(b.session, []*pkcs11.Mechanism{mech}, key.object); err != nil {
		return nil, fmt.Errorf("failed to init encrypt: %w", err)
	}
	ciphertext, err := b.ctx.Encrypt(b.session, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}
	return ciphertext, nil
}

// Decrypt decrypts ciphertext with the private key object behind h.
func (b *PKCS11Backend) Decrypt(h keypair.Handle, alg keypair.EncryptionAlgorithm, ciphertext []byte) ([]byte, error) {
	key, err := asPKCS11Key(h)
	if err != nil {
		return nil, err
	}
	mech, err := encryptionMechanism(alg)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ctx.DecryptInit(b.session, []*pkcs11.Mechanism{mech}, key.object); err != nil {
		return nil, fmt.Errorf("failed to init decrypt: %w", err)
	}
	plaintext, err := b.ctx.Decrypt(b.session, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return plaintext, nil
}

// Sign signs a SHA-256 digest with the private key object behind h.
func (b *PKCS11Backend) Sign(h keypair.Handle, alg keypair.SigningAlgorithm, digest []byte) ([]byte, error) {
	key, err := asPKCS11Key(h)
	if err != nil {
		return nil, err
	}
	mech, err := signingMechanism(alg)
	if err != nil {
		return nil, err
	}
	input, err := signingInput(alg, digest)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ctx.SignInit(b.session, []*pkcs11.Mechanism{mech}, key.object); err != nil {
		return nil, fmt.Errorf("failed to init sign: %w", err)
	}
	signature, err := b.ctx.Sign(b.session, input)
	if err != nil {
		return nil, fmt.Errorf("failed to sign data: %w", err)
	}
	return signature, nil
}

// Verify checks a signature over a SHA-256 digest with the public key object behind h.
func (b *PKCS11Backend) Verify(h keypair.Handle, alg keypair.SigningAlgorithm, digest, signature []byte) (bool, error) {
	key, err := asPKCS11Key(h)
	if err != nil {
		return false, err
	}
	mech, err := signingMechanism(alg)
	if err != nil {
		return false, err
	}
	if len(digest) != 32 {
		return false, nil
	}
	input, err := signingInput(alg, digest)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ctx.VerifyInit(b.session, []*pkcs11.Mechanism{mech}, key.object); err != nil {
		return false, fmt.Errorf("failed to init verify: %w", err)
	}
	err = b.ctx.Verify(b.session, input, signature)
	if isSignatureMismatch(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify signature: %w", err)
	}
	return true, nil
}

func isSignatureMismatch(err error) bool {
	var perr pkcs11.Error
	if !errors.As(err, &perr) {
		return false
	}
	return perr == pkcs11.CKR_SIGNATURE_INVALID || perr == pkcs11.CKR_SIGNATURE_LEN_RANGE
}

// Release destroys the session object behind h.
func (b *PKCS11Backend) Release(h keypair.Handle) {
	key, err := asPKCS11Key(h)
	if err != nil {
		b.logger.Warn("Release of foreign handle ignored: ", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyObjects(key.object)
}

func (b *PKCS11Backend) destroyObjects(objects ...pkcs11.ObjectHandle) {
	for _, object := range objects {
		if err := b.ctx.DestroyObject(b.session, object); err != nil {
			b.logger.Warn("Failed to destroy PKCS#11 object ", object, ": ", err)
		}
	}
}

func asPKCS11Key(h keypair.Handle) (*pkcs11Key, error) {
	key, ok := h.(*pkcs11Key)
	if !ok || key == nil {
		return nil, fmt.Errorf("handle %T does not belong to the PKCS#11 backend", h)
	}
	return key, nil
}
