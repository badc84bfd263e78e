// Carga del certificado de firma desde el blob .p12 (PKCS#12) del tenant.

package signer

import (
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/davcruz/facturador-api/internal/domain"
)

// LoadFromP12Blob descifra el contenedor PKCS#12 en memoria. Nunca toca disco
// y los mensajes de error jamás incluyen la contraseña ni los bytes del blob.
func LoadFromP12Blob(blob []byte, password string) (tls.Certificate, error) {
	if len(blob) == 0 {
		return tls.Certificate{}, domain.ErrCertificateNotConfigured
	}
	priv, cert, err := pkcs12.Decode(blob, password)
	if err != nil {
		// pkcs12 no distingue contraseña incorrecta de contenedor corrupto;
		// ambos casos son el mismo error accionable para el tenant.
		return tls.Certificate{}, domain.ErrCertificateInvalidPassword
	}
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// CheckValidityWindow verifica que now esté dentro de la ventana NotBefore y
// NotAfter del certificado hoja.
func CheckValidityWindow(cert tls.Certificate, now time.Time) error {
	leaf := cert.Leaf
	if leaf == nil && len(cert.Certificate) > 0 {
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("parsear certificado: %w", err)
		}
		leaf = parsed
	}
	if leaf == nil {
		return domain.ErrCertificateNotConfigured
	}
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fmt.Errorf("%w: válido de %s a %s", domain.ErrCertificateExpired,
			leaf.NotBefore.Format("2006-01-02"), leaf.NotAfter.Format("2006-01-02"))
	}
	return nil
}

// CertDigestAndIssuerSerial devuelve el digest SHA-1 del certificado (Base64),
// el nombre del emisor y el serial decimal para el bloque SigningCertificate.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serial string) {
	h := sha1.Sum(cert.Raw)
	digestB64 = base64.StdEncoding.EncodeToString(h[:])
	issuerName = cert.Issuer.String()
	serial = cert.SerialNumber.String()
	return digestB64, issuerName, serial
}
