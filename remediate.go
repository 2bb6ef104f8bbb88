package pqcbridge

import (
	"context"
	"strings"

	"github.com/latticegate/pqcbridge/engine"
)

// PQCAlternative names the recommended replacement for an algorithm.
type PQCAlternative struct {
	Algorithm string `json:"algorithm"`
	Standard  string `json:"standard"`
	NISTLevel int    `json:"nist_level,omitempty"`
}

// CodeExample is a language-tagged snippet showing the replacement in use.
type CodeExample struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// RemediationResult is the remediate tool's output document.
type RemediationResult struct {
	VulnerabilityType string         `json:"vulnerability_type"`
	Severity          string         `json:"severity"`
	QuantumVulnerable bool           `json:"quantum_vulnerable"`
	PQCAlternative    PQCAlternative `json:"pqc_alternative"`
	MigrationSteps    []string       `json:"migration_steps"`
	CodeExample       *CodeExample   `json:"code_example,omitempty"`
	Confidence        float64        `json:"confidence"`
	AutoApplicable    bool           `json:"auto_applicable"`
	References        []string       `json:"references"`
}

type remediationEntry struct {
	severity          string
	quantumVulnerable bool
	alternative       PQCAlternative
	migrationSteps    []string
	examples          map[Language]string
	confidence        float64
	autoApplicable    bool
	references        []string
}

// Remediate answers from the static knowledge table; the engine is never
// invoked. Unknown vulnerability types get the generic fallback rather than
// an error.
func (t *Toolset) Remediate(ctx context.Context, args map[string]any) (any, error) {
	vulnType := stringArg(args, "vulnerability_type", "")
	language := NormalizeLanguage(stringArg(args, "language", string(LanguagePython)))

	canonical, entry, ok := lookupRemediation(vulnType)
	if !ok {
		return fallbackRemediation(vulnType), nil
	}

	return RemediationResult{
		VulnerabilityType: canonical,
		Severity:          entry.severity,
		QuantumVulnerable: entry.quantumVulnerable,
		PQCAlternative:    entry.alternative,
		MigrationSteps:    entry.migrationSteps,
		CodeExample:       chooseExample(entry, language),
		Confidence:        entry.confidence,
		AutoApplicable:    entry.autoApplicable,
		References:        entry.references,
	}, nil
}

// lookupRemediation resolves a vulnerability type, tolerating display forms
// like "Diffie-Hellman" and "3DES" alongside the canonical identifiers.
func lookupRemediation(vulnType string) (string, remediationEntry, bool) {
	canonical := strings.ToUpper(strings.TrimSpace(vulnType))
	if alias, ok := remediationAliases[canonical]; ok {
		canonical = alias
	}
	entry, ok := remediationTable[canonical]
	return canonical, entry, ok
}

func chooseExample(entry remediationEntry, language Language) *CodeExample {
	if code, ok := entry.examples[language]; ok {
		return &CodeExample{Language: string(language), Code: code}
	}
	if code, ok := entry.examples[LanguagePython]; ok {
		return &CodeExample{Language: string(LanguagePython), Code: code}
	}
	return nil
}

func fallbackRemediation(vulnType string) RemediationResult {
	return RemediationResult{
		VulnerabilityType: vulnType,
		Severity:          engine.SeverityCritical,
		QuantumVulnerable: false,
		PQCAlternative: PQCAlternative{
			Algorithm: "Manual review required",
			Standard:  "NIST Post-Quantum Cryptography program",
		},
		MigrationSteps: []string{
			"No remediation playbook covers this algorithm.",
			"Contact your security team to assess its quantum exposure and select a replacement.",
		},
		Confidence:     0,
		AutoApplicable: false,
		References: []string{
			"https://csrc.nist.gov/projects/post-quantum-cryptography",
		},
	}
}

var remediationAliases = map[string]string{
	"DIFFIE-HELLMAN": engine.AlgorithmDiffieHellman,
	"DH":             engine.AlgorithmDiffieHellman,
	"3DES":           engine.AlgorithmTripleDES,
	"TRIPLEDES":      engine.AlgorithmTripleDES,
	"SHA-1":          engine.AlgorithmSHA1,
}

var remediationTable = map[string]remediationEntry{
	engine.AlgorithmRSA: {
		severity:          engine.SeverityHigh,
		quantumVulnerable: true,
		alternative: PQCAlternative{
			Algorithm: "ML-KEM (CRYSTALS-Kyber)",
			Standard:  "FIPS 203",
			NISTLevel: 3,
		},
		migrationSteps: []string{
			"Inventory every RSA key pair and note its use: encryption, key transport, or signatures.",
			"Replace RSA key transport with ML-KEM-768 key encapsulation; use ML-DSA for signature uses.",
			"Run hybrid classical+PQC during rollout so existing peers keep working.",
			"Rotate certificates and revoke retired RSA keys once all peers negotiate the replacement.",
		},
		examples: map[Language]string{
			LanguagePython: "import oqs\n\nwith oqs.KeyEncapsulation(\"ML-KEM-768\") as kem:\n    public_key = kem.generate_keypair()\n    ciphertext, shared_secret = kem.encap_secret(public_key)",
			LanguageJava:   "KeyPairGenerator kpg = KeyPairGenerator.getInstance(\"ML-KEM\", \"BC\");\nkpg.initialize(MLKEMParameterSpec.ml_kem_768);\nKeyPair keyPair = kpg.generateKeyPair();",
		},
		confidence:     0.5,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.203",
			"https://csrc.nist.gov/projects/post-quantum-cryptography",
		},
	},
	engine.AlgorithmECDSA: {
		severity:          engine.SeverityHigh,
		quantumVulnerable: true,
		alternative: PQCAlternative{
			Algorithm: "ML-DSA (CRYSTALS-Dilithium)",
			Standard:  "FIPS 204",
			NISTLevel: 3,
		},
		migrationSteps: []string{
			"Inventory ECDSA signing keys and the verifiers that depend on them.",
			"Issue ML-DSA-65 keys and dual-sign during the transition window.",
			"Consider SLH-DSA (SPHINCS+) where a stateless hash-based fallback is required.",
			"Retire ECDSA verification once every consumer accepts the new signatures.",
		},
		examples: map[Language]string{
			LanguagePython: "import oqs\n\nwith oqs.Signature(\"ML-DSA-65\") as signer:\n    public_key = signer.generate_keypair()\n    signature = signer.sign(b\"message\")",
			LanguageJava:   "KeyPairGenerator kpg = KeyPairGenerator.getInstance(\"ML-DSA\", \"BC\");\nkpg.initialize(MLDSAParameterSpec.ml_dsa_65);\nKeyPair keyPair = kpg.generateKeyPair();",
		},
		confidence:     0.5,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.204",
			"https://doi.org/10.6028/NIST.FIPS.205",
		},
	},
	engine.AlgorithmECDH: {
		severity:          engine.SeverityHigh,
		quantumVulnerable: true,
		alternative: PQCAlternative{
			Algorithm: "ML-KEM (CRYSTALS-Kyber)",
			Standard:  "FIPS 203",
			NISTLevel: 3,
		},
		migrationSteps: []string{
			"Locate every ECDH key agreement, including TLS configurations that pin ECDHE suites.",
			"Swap ephemeral ECDH for ML-KEM-768 encapsulation, or a hybrid X25519+ML-KEM exchange.",
			"Verify both endpoints derive identical secrets under the replacement before cutover.",
		},
		examples: map[Language]string{
			LanguagePython: "import oqs\n\nwith oqs.KeyEncapsulation(\"ML-KEM-768\") as kem:\n    public_key = kem.generate_keypair()\n    ciphertext, shared_secret = kem.encap_secret(public_key)",
			LanguageJava:   "KeyGenerator kg = KeyGenerator.getInstance(\"ML-KEM\", \"BC\");\nkg.init(MLKEMParameterSpec.ml_kem_768);\nSecretKeyWithEncapsulation secret = (SecretKeyWithEncapsulation) kg.generateKey();",
		},
		confidence:     0.5,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.203",
		},
	},
	engine.AlgorithmDSA: {
		severity:          engine.SeverityHigh,
		quantumVulnerable: true,
		alternative: PQCAlternative{
			Algorithm: "ML-DSA (CRYSTALS-Dilithium)",
			Standard:  "FIPS 204",
			NISTLevel: 3,
		},
		migrationSteps: []string{
			"DSA is both quantum-vulnerable and withdrawn from FIPS 186-5; treat any use as overdue.",
			"Issue ML-DSA-65 keys for every DSA signing identity.",
			"Re-sign long-lived artifacts whose signatures must stay verifiable past migration.",
		},
		examples: map[Language]string{
			LanguagePython: "import oqs\n\nwith oqs.Signature(\"ML-DSA-65\") as signer:\n    public_key = signer.generate_keypair()\n    signature = signer.sign(b\"message\")",
			LanguageJava:   "Signature signer = Signature.getInstance(\"ML-DSA\", \"BC\");\nsigner.initSign(privateKey);\nsigner.update(message);\nbyte[] signature = signer.sign();",
		},
		confidence:     0.5,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.204",
		},
	},
	engine.AlgorithmDiffieHellman: {
		severity:          engine.SeverityHigh,
		quantumVulnerable: true,
		alternative: PQCAlternative{
			Algorithm: "ML-KEM (CRYSTALS-Kyber)",
			Standard:  "FIPS 203",
			NISTLevel: 3,
		},
		migrationSteps: []string{
			"Find finite-field Diffie-Hellman exchanges, including legacy TLS and SSH group negotiation.",
			"Replace the exchange with ML-KEM-768 encapsulation; FrodoKEM is the conservative alternative.",
			"Confirm forward secrecy survives the swap by regenerating encapsulation keys per session.",
		},
		examples: map[Language]string{
			LanguagePython: "import oqs\n\nwith oqs.KeyEncapsulation(\"ML-KEM-768\") as kem:\n    public_key = kem.generate_keypair()\n    ciphertext, shared_secret = kem.encap_secret(public_key)",
			LanguageJava:   "KeyGenerator kg = KeyGenerator.getInstance(\"ML-KEM\", \"BC\");\nkg.init(MLKEMParameterSpec.ml_kem_768);\nSecretKeyWithEncapsulation secret = (SecretKeyWithEncapsulation) kg.generateKey();",
		},
		confidence:     0.5,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.203",
		},
	},
	engine.AlgorithmSHA1: {
		severity:          engine.SeverityCritical,
		quantumVulnerable: false,
		alternative: PQCAlternative{
			Algorithm: "SHA-256",
			Standard:  "FIPS 180-4",
		},
		migrationSteps: []string{
			"Replace SHA-1 digests with SHA-256; SHA-1 has practical collision attacks.",
			"Where digests are stored, version the field so old and new hashes can coexist during backfill.",
			"Use SHA-3 or BLAKE2 where a non-SHA-2 construction is preferred.",
		},
		examples: map[Language]string{
			LanguagePython: "import hashlib\n\ndigest = hashlib.sha256(data).hexdigest()",
			LanguageJava:   "MessageDigest digest = MessageDigest.getInstance(\"SHA-256\");\nbyte[] hash = digest.digest(data);",
		},
		confidence:     0.9,
		autoApplicable: true,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.180-4",
			"https://shattered.io",
		},
	},
	engine.AlgorithmMD5: {
		severity:          engine.SeverityCritical,
		quantumVulnerable: false,
		alternative: PQCAlternative{
			Algorithm: "SHA-256",
			Standard:  "FIPS 180-4",
		},
		migrationSteps: []string{
			"Replace MD5 digests with SHA-256; MD5 collisions are trivial to produce.",
			"For password storage, move to a memory-hard KDF such as Argon2id instead of any plain digest.",
			"Audit stored MD5 values and re-hash them as source material becomes available.",
		},
		examples: map[Language]string{
			LanguagePython: "import hashlib\n\ndigest = hashlib.sha256(data).hexdigest()",
			LanguageJava:   "MessageDigest digest = MessageDigest.getInstance(\"SHA-256\");\nbyte[] hash = digest.digest(data);",
		},
		confidence:     0.85,
		autoApplicable: true,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.180-4",
		},
	},
	engine.AlgorithmDES: {
		severity:          engine.SeverityCritical,
		quantumVulnerable: false,
		alternative: PQCAlternative{
			Algorithm: "AES-256-GCM",
			Standard:  "FIPS 197",
		},
		migrationSteps: []string{
			"Replace DES with AES-256 in GCM mode; a 56-bit key falls to brute force on commodity hardware.",
			"Generate fresh 256-bit keys; never reuse DES key material.",
			"Use a unique nonce per encryption and authenticate associated data with the GCM tag.",
		},
		examples: map[Language]string{
			LanguagePython: "from cryptography.hazmat.primitives.ciphers.aead import AESGCM\n\nkey = AESGCM.generate_key(bit_length=256)\naesgcm = AESGCM(key)\nciphertext = aesgcm.encrypt(nonce, plaintext, None)",
			LanguageJava:   "Cipher cipher = Cipher.getInstance(\"AES/GCM/NoPadding\");\ncipher.init(Cipher.ENCRYPT_MODE, key, new GCMParameterSpec(128, nonce));\nbyte[] ciphertext = cipher.doFinal(plaintext);",
		},
		confidence:     0.75,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.FIPS.197",
			"https://doi.org/10.6028/NIST.SP.800-38D",
		},
	},
	engine.AlgorithmTripleDES: {
		severity:          engine.SeverityCritical,
		quantumVulnerable: false,
		alternative: PQCAlternative{
			Algorithm: "AES-256-GCM",
			Standard:  "FIPS 197",
		},
		migrationSteps: []string{
			"Replace 3DES with AES-256-GCM; the 64-bit block size enables Sweet32-style attacks on long sessions.",
			"NIST SP 800-131A disallows 3DES encryption after 2023; decryption-only use should be transitional.",
			"Re-encrypt data at rest under AES as it is next touched.",
		},
		examples: map[Language]string{
			LanguagePython: "from cryptography.hazmat.primitives.ciphers.aead import AESGCM\n\nkey = AESGCM.generate_key(bit_length=256)\naesgcm = AESGCM(key)\nciphertext = aesgcm.encrypt(nonce, plaintext, None)",
			LanguageJava:   "Cipher cipher = Cipher.getInstance(\"AES/GCM/NoPadding\");\ncipher.init(Cipher.ENCRYPT_MODE, key, new GCMParameterSpec(128, nonce));\nbyte[] ciphertext = cipher.doFinal(plaintext);",
		},
		confidence:     0.75,
		autoApplicable: false,
		references: []string{
			"https://doi.org/10.6028/NIST.SP.800-131Ar2",
		},
	},
	engine.AlgorithmRC4: {
		severity:          engine.SeverityCritical,
		quantumVulnerable: false,
		alternative: PQCAlternative{
			Algorithm: "AES-256-GCM",
			Standard:  "FIPS 197",
		},
		migrationSteps: []string{
			"Remove RC4 entirely; keystream biases make plaintext recovery practical (RFC 7465 prohibits it in TLS).",
			"Use AES-256-GCM, or ChaCha20-Poly1305 where AES hardware is unavailable.",
			"Rotate any key that was ever used with RC4.",
		},
		examples: map[Language]string{
			LanguagePython: "from cryptography.hazmat.primitives.ciphers.aead import ChaCha20Poly1305\n\nkey = ChaCha20Poly1305.generate_key()\nchacha = ChaCha20Poly1305(key)\nciphertext = chacha.encrypt(nonce, plaintext, None)",
			LanguageJava:   "Cipher cipher = Cipher.getInstance(\"AES/GCM/NoPadding\");\ncipher.init(Cipher.ENCRYPT_MODE, key, new GCMParameterSpec(128, nonce));\nbyte[] ciphertext = cipher.doFinal(plaintext);",
		},
		confidence:     0.75,
		autoApplicable: false,
		references: []string{
			"https://www.rfc-editor.org/rfc/rfc7465",
		},
	},
}
