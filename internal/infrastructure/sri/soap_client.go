package sri

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/davcruz/facturador-api/internal/domain"
)

// ── Endpoints y namespaces SOAP del SRI ───────────────────────────────────────

const (
	receptionURLTest = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"
	receptionURLProd = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/RecepcionComprobantesOffline"

	authorizationURLTest = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	authorizationURLProd = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"

	nsSoapEnv       = "http://schemas.xmlsoap.org/soap/envelope/"
	nsRecepcion     = "http://ec.gob.sri.ws.recepcion"
	nsAutorizacion  = "http://ec.gob.sri.ws.autorizacion"

	estadoRecibida = "RECIBIDA"
	estadoDevuelta = "DEVUELTA"
)

// Política de reintento ante fallos transitorios: 4 intentos en total, espera
// exponencial desde 500 ms con techo de 5 s. Los rechazos de negocio del SRI
// (DEVUELTA, NO AUTORIZADO) no se reintentan.
const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 5 * time.Second
	retryMaxAttempts     = 4
)

// SOAPSRIClient implementa SRIGateway contra los WS SOAP del SRI.
// Usa net/http para el transporte; los envelopes se arman a mano porque el
// contrato del SRI es pequeño y estable.
type SOAPSRIClient struct {
	httpClient       *http.Client
	receptionURL     string
	authorizationURL string
}

var _ SRIGateway = (*SOAPSRIClient)(nil)

// NewSOAPSRIClient construye el cliente para el entorno dado. receptionURL y
// authorizationURL permiten apuntar a un WS alterno (tests); vacíos usan los
// endpoints oficiales del entorno.
func NewSOAPSRIClient(env, receptionURL, authorizationURL string) (*SOAPSRIClient, error) {
	c := &SOAPSRIClient{
		// El WS del SRI puede tardar varios segundos bajo carga.
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		receptionURL:     receptionURL,
		authorizationURL: authorizationURL,
	}
	if c.receptionURL == "" || c.authorizationURL == "" {
		switch env {
		case AppEnvProd:
			c.receptionURL = receptionURLProd
			c.authorizationURL = authorizationURLProd
		case AppEnvTest:
			c.receptionURL = receptionURLTest
			c.authorizationURL = authorizationURLTest
		default:
			return nil, fmt.Errorf("sri: entorno %q sin endpoints (usar 'test' o 'prod', o URLs explícitas)", env)
		}
	}
	return c, nil
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	ReceptionResponse     *validarComprobanteResponse     `xml:"validarComprobanteResponse"`
	AuthorizationResponse *autorizacionComprobanteResponse `xml:"autorizacionComprobanteResponse"`
	Fault                 *soapFault                       `xml:"Fault"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

type validarComprobanteResponse struct {
	Respuesta respuestaRecepcion `xml:"RespuestaRecepcionComprobante"`
}

type respuestaRecepcion struct {
	Estado       string           `xml:"estado"`
	Comprobantes []comprobanteMsg `xml:"comprobantes>comprobante"`
}

type comprobanteMsg struct {
	ClaveAcceso string       `xml:"claveAcceso"`
	Mensajes    []sriMensaje `xml:"mensajes>mensaje"`
}

type sriMensaje struct {
	Identificador        string `xml:"identificador"`
	Mensaje              string `xml:"mensaje"`
	InformacionAdicional string `xml:"informacionAdicional"`
	Tipo                 string `xml:"tipo"`
}

type autorizacionComprobanteResponse struct {
	Respuesta respuestaAutorizacion `xml:"RespuestaAutorizacionComprobante"`
}

type respuestaAutorizacion struct {
	ClaveAccesoConsultada string         `xml:"claveAccesoConsultada"`
	NumeroComprobantes    string         `xml:"numeroComprobantes"`
	Autorizaciones        []autorizacion `xml:"autorizaciones>autorizacion"`
}

type autorizacion struct {
	Estado             string       `xml:"estado"`
	NumeroAutorizacion string       `xml:"numeroAutorizacion"`
	FechaAutorizacion  string       `xml:"fechaAutorizacion"`
	Ambiente           string       `xml:"ambiente"`
	Comprobante        string       `xml:"comprobante"`
	Mensajes           []sriMensaje `xml:"mensajes>mensaje"`
}

// ── SubmitReception ───────────────────────────────────────────────────────────

// SubmitReception envía el XML firmado (Base64) a validarComprobante.
func (c *SOAPSRIClient) SubmitReception(ctx context.Context, signedXML []byte) (*ReceptionResult, error) {
	if len(signedXML) == 0 {
		return nil, fmt.Errorf("sri: XML firmado vacío")
	}
	envelope := buildReceptionEnvelope(base64.StdEncoding.EncodeToString(signedXML))

	raw, err := c.post(ctx, c.receptionURL, envelope)
	if err != nil {
		return nil, err
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("%w: respuesta de recepción ilegible: %v", domain.ErrSRIUnavailable, err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("sri: SOAP Fault [%s]: %s", envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}
	if envResp.Body.ReceptionResponse == nil {
		return nil, fmt.Errorf("%w: respuesta de recepción vacía", domain.ErrSRIUnavailable)
	}

	resp := envResp.Body.ReceptionResponse.Respuesta
	result := &ReceptionResult{Estado: resp.Estado}
	for _, comp := range resp.Comprobantes {
		result.Messages = append(result.Messages, toMessages(comp.Mensajes)...)
	}
	return result, nil
}

// ── CheckAuthorization ────────────────────────────────────────────────────────

// CheckAuthorization consulta autorizacionComprobante por clave de acceso.
func (c *SOAPSRIClient) CheckAuthorization(ctx context.Context, accessKey string) (*AuthorizationResult, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("sri: clave de acceso vacía")
	}
	envelope := buildAuthorizationEnvelope(accessKey)

	raw, err := c.post(ctx, c.authorizationURL, envelope)
	if err != nil {
		return nil, err
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return nil, fmt.Errorf("%w: respuesta de autorización ilegible: %v", domain.ErrSRIUnavailable, err)
	}
	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("sri: SOAP Fault [%s]: %s", envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}
	if envResp.Body.AuthorizationResponse == nil {
		return nil, fmt.Errorf("%w: respuesta de autorización vacía", domain.ErrSRIUnavailable)
	}

	resp := envResp.Body.AuthorizationResponse.Respuesta
	if len(resp.Autorizaciones) == 0 {
		// El SRI no conoce la clave: el envío nunca llegó.
		return &AuthorizationResult{Found: false, Estado: ""}, nil
	}

	// El SRI puede devolver varias autorizaciones para la misma clave; la
	// primera es la vigente.
	auth := resp.Autorizaciones[0]
	result := &AuthorizationResult{
		Found:               true,
		Estado:              auth.Estado,
		AuthorizationNumber: auth.NumeroAutorizacion,
		Environment:         auth.Ambiente,
		Messages:            toMessages(auth.Mensajes),
	}
	if ts := parseSRITime(auth.FechaAutorizacion); ts != nil {
		result.AuthorizedAt = ts
	}
	return result, nil
}

// ── Transporte con reintentos ─────────────────────────────────────────────────

// post ejecuta el POST SOAP con reintentos exponenciales ante fallos
// transitorios (red, 5xx). Agotados los intentos devuelve ErrSRIUnavailable.
func (c *SOAPSRIClient) post(ctx context.Context, url string, envelope []byte) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval

	var raw []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(envelope))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("sri: crear request: %w", err))
		}
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("llamada HTTP fallida: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // max 4 MB
		if err != nil {
			return fmt.Errorf("leer respuesta: %w", err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("HTTP %d del WS SRI", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("sri: HTTP %d inesperado del WS", resp.StatusCode))
		}
		raw = body
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, retryMaxAttempts-1), ctx))
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSRIUnavailable, err)
	}
	return raw, nil
}

// ── Envelopes ─────────────────────────────────────────────────────────────────

func buildReceptionEnvelope(xmlB64 string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<soapenv:Envelope xmlns:soapenv="` + nsSoapEnv + `" xmlns:ec="` + nsRecepcion + `">`)
	buf.WriteString(`<soapenv:Header/><soapenv:Body>`)
	buf.WriteString(`<ec:validarComprobante><xml>` + xmlB64 + `</xml></ec:validarComprobante>`)
	buf.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return buf.Bytes()
}

func buildAuthorizationEnvelope(accessKey string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<soapenv:Envelope xmlns:soapenv="` + nsSoapEnv + `" xmlns:ec="` + nsAutorizacion + `">`)
	buf.WriteString(`<soapenv:Header/><soapenv:Body>`)
	buf.WriteString(`<ec:autorizacionComprobante><claveAccesoComprobante>` + accessKey + `</claveAccesoComprobante></ec:autorizacionComprobante>`)
	buf.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return buf.Bytes()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func toMessages(in []sriMensaje) []SRIMessage {
	out := make([]SRIMessage, 0, len(in))
	for _, m := range in {
		out = append(out, SRIMessage{
			Identifier:     m.Identificador,
			Message:        m.Mensaje,
			AdditionalInfo: m.InformacionAdicional,
			Type:           m.Tipo,
		})
	}
	return out
}

// parseSRITime tolera los formatos de fecha que devuelve el WS del SRI.
func parseSRITime(s string) *time.Time {
	if s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000-07:00",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
