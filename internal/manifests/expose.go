package manifests

import (
	networkingv1 "k8s.io/api/networking/v1"

	"github.com/shaiso/Mastokube/internal/config"
	"github.com/shaiso/Mastokube/internal/domain"
)

// Ingress возвращает Ingress стадии exposure.
//
// Streaming-трафик уходит на отдельный backend, остальное — на web.
func Ingress(env *config.Environment) domain.Resource {
	pathPrefix := networkingv1.PathTypePrefix
	className := env.IngressClass

	annotations := map[string]string{
		"nginx.ingress.kubernetes.io/proxy-body-size": "40m",
	}
	if env.ForceSSL {
		annotations["nginx.ingress.kubernetes.io/force-ssl-redirect"] = "true"
	}

	ing := &networkingv1.Ingress{
		ObjectMeta: objectMeta(IngressName, "ingress"),
		Spec: networkingv1.IngressSpec{
			IngressClassName: &className,
			Rules: []networkingv1.IngressRule{
				{
					Host: env.Domain,
					IngressRuleValue: networkingv1.IngressRuleValue{
						HTTP: &networkingv1.HTTPIngressRuleValue{
							Paths: []networkingv1.HTTPIngressPath{
								{
									Path:     "/api/v1/streaming",
									PathType: &pathPrefix,
									Backend: networkingv1.IngressBackend{
										Service: &networkingv1.IngressServiceBackend{
											Name: StreamingServiceName,
											Port: networkingv1.ServiceBackendPort{Number: StreamingPort},
										},
									},
								},
								{
									Path:     "/",
									PathType: &pathPrefix,
									Backend: networkingv1.IngressBackend{
										Service: &networkingv1.IngressServiceBackend{
											Name: WebServiceName,
											Port: networkingv1.ServiceBackendPort{Number: WebPort},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	ing.Annotations = annotations

	return domain.Resource{
		Kind:   domain.KindIngress,
		Name:   IngressName,
		Object: ing,
		Requires: []domain.Reference{
			{Kind: domain.KindService, Name: WebServiceName},
			{Kind: domain.KindService, Name: StreamingServiceName},
		},
	}
}
