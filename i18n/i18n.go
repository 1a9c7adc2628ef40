// Package i18n holds the user-facing message catalog (French by default, English available).
package i18n

import (
	"context"
	"fmt"
	"strings"
)

// Default is the language used when nothing else matches.
const Default = "fr"

type ctxKey struct{}

var catalog = map[string]map[string]string{
	"fr": {
		"required": "Requis",

		// validation gate
		"required_date":             "La date de la facture est obligatoire",
		"invalid_date":              "La date de la facture est invalide (AAAA-MM-JJ)",
		"required_event_location":   "Le lieu de l'événement est obligatoire",
		"required_client_name":      "Le nom du client est obligatoire",
		"required_client_address":   "L'adresse du client est obligatoire",
		"required_client_postal":    "Le code postal du client est obligatoire",
		"required_client_city":      "La ville du client est obligatoire",
		"required_client_housing":   "Le type de logement est obligatoire",
		"required_client_door_code": "Le code porte / étage est obligatoire",
		"required_client_phone":     "Le téléphone du client est obligatoire",
		"required_client_email":     "L'email du client est obligatoire",
		"invalid_client_email":      "Le format de l'email du client est invalide",
		"required_products":         "Au moins un produit est requis",
		"negative_quantity":         "Produit %d : la quantité ne peut pas être négative",
		"negative_discount":         "Produit %d : la remise ne peut pas être négative",
		"percent_discount_range":    "Produit %d : une remise en pourcentage doit être comprise entre 0 et 100",
		"negative_deposit":          "L'acompte ne peut pas être négatif",
		"deposit_exceeds_total":     "L'acompte ne peut pas dépasser le total TTC",
		"tax_rate_range":            "Le taux de TVA doit être compris entre 0 et 100",

		// pipeline
		"validation_failed":     "Facture incomplète : %s",
		"render_failed":         "La génération du PDF a échoué : %s",
		"persistence_failed":    "Sauvegarde locale impossible : %s",
		"invoice_saved":         "Facture %s enregistrée",
		"invoice_opened":        "Facture %s ouverte",
		"new_invoice_created":   "Nouvelle facture %s créée",
		"confirmation_required": "Cette action efface la facture en cours : confirmation requise",
		"settings_saved":        "Paramètres enregistrés",
		"not_found":             "Élément introuvable",
		"unknown_channel":       "Canal d'envoi inconnu : %s",

		// local channels
		"local_saved":        "PDF enregistré : %s",
		"local_write_failed": "Impossible d'écrire le fichier PDF : %s",
		"print_sent":         "Facture envoyée à l'imprimante",
		"print_failed":       "Impression impossible : %s",

		// webhook relay
		"webhook_sent":             "Facture %s envoyée au stockage de documents",
		"webhook_test_ok":          "Connexion au webhook réussie",
		"webhook_not_configured":   "Aucune URL de webhook configurée : renseignez-la dans les paramètres",
		"webhook_invalid_url":      "URL de webhook invalide : %s",
		"webhook_timeout":          "Le webhook n'a pas répondu en %s : le PDF est peut-être trop lourd, réessayez plus tard",
		"webhook_network":          "Webhook injoignable : vérifiez votre connexion internet et l'adresse du serveur",
		"webhook_cors":             "Le webhook refuse les requêtes de l'origine %s : autorisez-la (CORS) dans le déploiement du relais",
		"webhook_unauthenticated":  "Le webhook exige une authentification : déployez-le avec un accès « Tout le monde »",
		"webhook_http_400":         "Requête refusée par le webhook (400) : vérifiez que le script attend bien les champs de la facture",
		"webhook_http_403":         "Accès interdit au webhook (403) : redéployez le script avec l'accès « Tout le monde »",
		"webhook_http_404":         "Webhook introuvable (404) : vérifiez l'URL, un redéploiement génère une nouvelle adresse",
		"webhook_http_500":         "Erreur interne du webhook (500) : consultez les journaux du script et l'identifiant du dossier",
		"webhook_http_other":       "Le webhook a répondu avec le statut HTTP %d",

		// email relay
		"email_sent":              "Facture envoyée par email à %s",
		"email_test_ok":           "Connexion au service email réussie",
		"email_not_configured":    "Service email non configuré : renseignez le service, le modèle et la clé publique",
		"email_invalid_url":       "URL de l'API email invalide : %s",
		"email_missing_recipient": "Aucun destinataire : renseignez l'email du client",
		"email_timeout":           "Le service email n'a pas répondu en %s : la pièce jointe est peut-être trop lourde",
		"email_network":           "Service email injoignable : vérifiez votre connexion internet",
		"email_cors":              "Le service email refuse les requêtes de l'origine %s : ajoutez-la aux domaines autorisés",
		"email_unauthenticated":   "Clé publique ou clé privée refusée par le service email",
		"email_http_400":          "Requête refusée par le service email (400) : vérifiez l'identifiant du service et du modèle",
		"email_http_403":          "Appel refusé (403) : autorisez l'API pour les applications hors navigateur dans le compte email",
		"email_http_404":          "Service ou modèle email introuvable (404) : vérifiez les identifiants",
		"email_http_500":          "Erreur interne du service email (500) : réessayez plus tard",
		"email_http_other":        "Le service email a répondu avec le statut HTTP %d",
		"email_message":           "Bonjour %s,\n\nVeuillez trouver ci-joint votre facture n° %s d'un montant de %s.\n\nCordialement.",

		// pdf labels
		"pdf_title":          "FACTURE",
		"pdf_number":         "N° %s",
		"pdf_date":           "Date : %s",
		"pdf_client":         "Client",
		"pdf_housing":        "Logement : %s",
		"pdf_door_code":      "Code / étage : %s",
		"pdf_event_location": "Lieu de l'événement : %s",
		"pdf_advisor":        "Conseiller : %s",
		"pdf_col_name":       "Désignation",
		"pdf_col_category":   "Catégorie",
		"pdf_col_qty":        "Qté",
		"pdf_col_unit_ht":    "PU HT",
		"pdf_col_unit_ttc":   "PU TTC",
		"pdf_col_discount":   "Remise",
		"pdf_col_total":      "Total TTC",
		"pdf_subtotal":       "Total HT",
		"pdf_tax":            "TVA %s %%",
		"pdf_total":          "Total TTC",
		"pdf_deposit":        "Acompte",
		"pdf_balance":        "Reste à payer",
		"pdf_payment":        "Paiement : %s",
		"pdf_delivery":       "Livraison : %s",
		"pdf_notes":          "Notes",
		"pdf_terms":          "Conditions générales de vente acceptées",
		"pdf_signature":      "Signature du client",

		// register export
		"register_sheet":       "Registre",
		"register_col_number":  "N° facture",
		"register_col_date":    "Date",
		"register_col_client":  "Client",
		"register_col_email":   "Email",
		"register_col_city":    "Ville",
		"register_col_total":   "Total TTC",
		"register_col_deposit": "Acompte",
		"register_col_balance": "Reste à payer",
		"register_col_payment": "Paiement",
		"register_total":       "Total",
	},
	"en": {
		"required": "Required",

		"required_date":             "The invoice date is required",
		"invalid_date":              "The invoice date is invalid (YYYY-MM-DD)",
		"required_event_location":   "The event location is required",
		"required_client_name":      "The client name is required",
		"required_client_address":   "The client address is required",
		"required_client_postal":    "The client postal code is required",
		"required_client_city":      "The client city is required",
		"required_client_housing":   "The housing type is required",
		"required_client_door_code": "The door / floor code is required",
		"required_client_phone":     "The client phone is required",
		"required_client_email":     "The client email is required",
		"invalid_client_email":      "The client email format is invalid",
		"required_products":         "At least one product is required",
		"negative_quantity":         "Product %d: quantity cannot be negative",
		"negative_discount":         "Product %d: discount cannot be negative",
		"percent_discount_range":    "Product %d: a percent discount must be between 0 and 100",
		"negative_deposit":          "The deposit cannot be negative",
		"deposit_exceeds_total":     "The deposit cannot exceed the total including tax",
		"tax_rate_range":            "The tax rate must be between 0 and 100",

		"validation_failed":     "Incomplete invoice: %s",
		"render_failed":         "PDF generation failed: %s",
		"persistence_failed":    "Local save failed: %s",
		"invoice_saved":         "Invoice %s saved",
		"invoice_opened":        "Invoice %s opened",
		"new_invoice_created":   "New invoice %s created",
		"confirmation_required": "This discards the current invoice: confirmation required",
		"settings_saved":        "Settings saved",
		"not_found":             "Not found",
		"unknown_channel":       "Unknown delivery channel: %s",

		"local_saved":        "PDF saved: %s",
		"local_write_failed": "Could not write the PDF file: %s",
		"print_sent":         "Invoice sent to the printer",
		"print_failed":       "Printing failed: %s",

		"webhook_sent":            "Invoice %s sent to document storage",
		"webhook_test_ok":         "Webhook connection succeeded",
		"webhook_not_configured":  "No webhook URL configured: set it in the settings",
		"webhook_invalid_url":     "Invalid webhook URL: %s",
		"webhook_timeout":         "The webhook did not answer within %s: the PDF may be too large, try again later",
		"webhook_network":         "Webhook unreachable: check your internet connection and the server address",
		"webhook_cors":            "The webhook rejects requests from origin %s: allow it (CORS) in the relay deployment",
		"webhook_unauthenticated": "The webhook requires authentication: deploy it with access set to \"Anyone\"",
		"webhook_http_400":        "Request rejected by the webhook (400): check the script expects the invoice fields",
		"webhook_http_403":        "Webhook access forbidden (403): redeploy the script with access set to \"Anyone\"",
		"webhook_http_404":        "Webhook not found (404): check the URL, a redeploy creates a new address",
		"webhook_http_500":        "Webhook internal error (500): check the script logs and the folder id",
		"webhook_http_other":      "The webhook answered with HTTP status %d",

		"email_sent":              "Invoice emailed to %s",
		"email_test_ok":           "Email service connection succeeded",
		"email_not_configured":    "Email service not configured: set the service, template and public key",
		"email_invalid_url":       "Invalid email API URL: %s",
		"email_missing_recipient": "No recipient: fill in the client email",
		"email_timeout":           "The email service did not answer within %s: the attachment may be too large",
		"email_network":           "Email service unreachable: check your internet connection",
		"email_cors":              "The email service rejects requests from origin %s: add it to the allowed domains",
		"email_unauthenticated":   "Public or private key rejected by the email service",
		"email_http_400":          "Request rejected by the email service (400): check the service and template ids",
		"email_http_403":          "Call refused (403): allow API calls from non-browser applications in the email account",
		"email_http_404":          "Email service or template not found (404): check the ids",
		"email_http_500":          "Email service internal error (500): try again later",
		"email_http_other":        "The email service answered with HTTP status %d",
		"email_message":           "Hello %s,\n\nPlease find attached your invoice no. %s for %s.\n\nBest regards.",

		"pdf_title":          "INVOICE",
		"pdf_number":         "No. %s",
		"pdf_date":           "Date: %s",
		"pdf_client":         "Client",
		"pdf_housing":        "Housing: %s",
		"pdf_door_code":      "Door / floor: %s",
		"pdf_event_location": "Event location: %s",
		"pdf_advisor":        "Advisor: %s",
		"pdf_col_name":       "Item",
		"pdf_col_category":   "Category",
		"pdf_col_qty":        "Qty",
		"pdf_col_unit_ht":    "Unit excl.",
		"pdf_col_unit_ttc":   "Unit incl.",
		"pdf_col_discount":   "Discount",
		"pdf_col_total":      "Total incl.",
		"pdf_subtotal":       "Subtotal excl. tax",
		"pdf_tax":            "VAT %s %%",
		"pdf_total":          "Total incl. tax",
		"pdf_deposit":        "Deposit",
		"pdf_balance":        "Balance due",
		"pdf_payment":        "Payment: %s",
		"pdf_delivery":       "Delivery: %s",
		"pdf_notes":          "Notes",
		"pdf_terms":          "Terms and conditions of sale accepted",
		"pdf_signature":      "Client signature",

		// register export
		"register_sheet":       "Register",
		"register_col_number":  "Invoice no.",
		"register_col_date":    "Date",
		"register_col_client":  "Client",
		"register_col_email":   "Email",
		"register_col_city":    "City",
		"register_col_total":   "Total incl. tax",
		"register_col_deposit": "Deposit",
		"register_col_balance": "Balance due",
		"register_col_payment": "Payment",
		"register_total":       "Total",
	},
}

// T translates code for lang. Unknown languages fall back to French, unknown codes to the code itself.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[Default][code]; ok {
		return s
	}
	return code
}

// Tf translates code and formats it with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := catalog[base]; ok {
			return base
		}
	}
	return Default
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// WithLang stores the language preference in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the language stored in ctx, or Default.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return Default
}
