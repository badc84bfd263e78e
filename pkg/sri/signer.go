// Interfaz para firma digital de comprobantes XML (XAdES-BES, SRI).

package sri

import "crypto/tls"

// Signer firma un XML de comprobante y devuelve el XML con la firma envolvente
// inyectada como último hijo del elemento raíz.
type Signer interface {
	// Sign toma el XML del comprobante (sin firma) y el certificado con llave
	// privada ya descifrada en memoria, y retorna el XML firmado.
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
